package rsvp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rsvp-service/internal/guests"
	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
)

// DefaultMaxAttendees is the hard ceiling on attendee rows per submission,
// independent of any per-guest allowance.
const DefaultMaxAttendees = 10

var (
	ErrPrimaryGuestRequired = errors.New("primaryGuest required")
	ErrGuestNotFound        = errors.New("guest not found on the invite list")
)

// CapacityError reports how many additional attendees the guest's allowance
// permits versus how many the submission carried.
type CapacityError struct {
	Allowed  int
	Received int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: %d additional guests allowed, received %d", e.Allowed, e.Received)
}

type RSVPDBLayer interface {
	UpsertWithAttendees(ctx context.Context, rsvp models.RSVP, attendees []models.AttendeeInput) (*models.RSVP, error)
	UpdateWithAttendees(ctx context.Context, rsvp models.RSVP, attendees []models.AttendeeInput) (*models.RSVP, error)
	GetRSVPByID(ctx context.Context, id string) (*models.RSVP, error)
	ListRSVPs(ctx context.Context) ([]models.RSVP, error)
	DeleteRSVP(ctx context.Context, id string) error
}

type GuestDirectory interface {
	FindGuestByName(ctx context.Context, name string) (*models.Guest, error)
}

type Notifier interface {
	Enabled() bool
	SendRSVPNotification(primaryGuest string, attendees []models.AttendeeInput, guestEmail string) error
}

type EventPublisher interface {
	PublishRSVPSubmitted(rsvp models.RSVP, attendeeCount int) error
	PublishRSVPDeleted(rsvpID string) error
}

type RSVPService struct {
	DB       RSVPDBLayer
	Guests   GuestDirectory
	Notifier Notifier
	Events   EventPublisher
	Logger   *logger.Logger

	// DirectoryEnforced gates the guest lookup and allowance check. When
	// false the flat attendee ceiling is the only limit.
	DirectoryEnforced bool
	MaxAttendees      int
}

func NewRSVPService(db RSVPDBLayer, directory GuestDirectory, notifier Notifier, events EventPublisher, log *logger.Logger, directoryEnforced bool) *RSVPService {
	return &RSVPService{
		DB:                db,
		Guests:            directory,
		Notifier:          notifier,
		Events:            events,
		Logger:            log,
		DirectoryEnforced: directoryEnforced,
		MaxAttendees:      DefaultMaxAttendees,
	}
}

// SanitizeAttendees trims names, drops blank entries before they can consume
// a slot, coerces any age other than "child" to "adult" and truncates to max
// entries. Surviving order is submission order. Never errors.
func SanitizeAttendees(raw []models.AttendeeInput, max int) []models.AttendeeInput {
	cleaned := make([]models.AttendeeInput, 0, len(raw))
	for _, a := range raw {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		age := models.AgeAdult
		if a.Age == models.AgeChild {
			age = models.AgeChild
		}
		cleaned = append(cleaned, models.AttendeeInput{Name: name, Age: age})
		if len(cleaned) == max {
			break
		}
	}
	return cleaned
}

// Submit runs the full submission workflow: normalize, sanitize, validate
// against the directory when enforced, upsert the record with its replaced
// attendee set, then hand off notification and event publish without
// blocking. The returned bool reports whether a notification was dispatched.
func (s *RSVPService) Submit(ctx context.Context, req models.SubmitRSVPRequest) (*models.RSVP, bool, error) {
	primary := strings.TrimSpace(req.PrimaryGuest)
	if primary == "" {
		return nil, false, ErrPrimaryGuestRequired
	}

	attendees := SanitizeAttendees(req.Attendees, s.maxAttendees())

	record := models.RSVP{
		PrimaryGuestName: primary,
		PrimaryGuestKey:  models.NameKey(primary),
		GuestEmail:       strings.TrimSpace(req.GuestEmail),
	}

	if s.DirectoryEnforced {
		guest, err := s.Guests.FindGuestByName(ctx, primary)
		if errors.Is(err, guests.ErrNotFound) {
			return nil, false, ErrGuestNotFound
		}
		if err != nil {
			return nil, false, fmt.Errorf("guest lookup failed: %w", err)
		}
		if len(attendees) > guest.TotalSlots() {
			return nil, false, &CapacityError{Allowed: guest.TotalSlots(), Received: len(attendees)}
		}
		record.GuestID = guest.ID
		record.PrimaryGuestKey = guest.NameKey
	}

	saved, err := s.DB.UpsertWithAttendees(ctx, record, attendees)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save rsvp: %w", err)
	}
	s.Logger.LogRSVP("SUBMIT", saved.PrimaryGuestKey, fmt.Sprintf("record saved with %d attendees", len(attendees)))

	dispatched := s.dispatchNotification(primary, attendees, record.GuestEmail)
	s.publishSubmitted(*saved, len(attendees))

	return saved, dispatched, nil
}

// AdminSave is the host-side upsert. Same store semantics as Submit but no
// directory validation and no notification.
func (s *RSVPService) AdminSave(ctx context.Context, req models.SubmitRSVPRequest) (*models.RSVP, error) {
	primary := strings.TrimSpace(req.PrimaryGuest)
	if primary == "" {
		return nil, ErrPrimaryGuestRequired
	}
	attendees := SanitizeAttendees(req.Attendees, s.maxAttendees())

	record := models.RSVP{
		PrimaryGuestName: primary,
		PrimaryGuestKey:  models.NameKey(primary),
		GuestEmail:       strings.TrimSpace(req.GuestEmail),
	}
	if s.DirectoryEnforced {
		if guest, err := s.Guests.FindGuestByName(ctx, primary); err == nil {
			record.GuestID = guest.ID
			record.PrimaryGuestKey = guest.NameKey
		}
	}

	saved, err := s.DB.UpsertWithAttendees(ctx, record, attendees)
	if err != nil {
		return nil, err
	}
	s.publishSubmitted(*saved, len(attendees))
	return saved, nil
}

// AdminUpdate edits a record in place by ID and replaces its attendee set.
func (s *RSVPService) AdminUpdate(ctx context.Context, id string, req models.SubmitRSVPRequest) (*models.RSVP, error) {
	primary := strings.TrimSpace(req.PrimaryGuest)
	if primary == "" {
		return nil, ErrPrimaryGuestRequired
	}
	attendees := SanitizeAttendees(req.Attendees, s.maxAttendees())

	existing, err := s.DB.GetRSVPByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.PrimaryGuestName = primary
	existing.PrimaryGuestKey = models.NameKey(primary)
	existing.GuestEmail = strings.TrimSpace(req.GuestEmail)

	return s.DB.UpdateWithAttendees(ctx, *existing, attendees)
}

func (s *RSVPService) ListRSVPs(ctx context.Context) ([]models.RSVP, error) {
	return s.DB.ListRSVPs(ctx)
}

func (s *RSVPService) DeleteRSVP(ctx context.Context, id string) error {
	if err := s.DB.DeleteRSVP(ctx, id); err != nil {
		return err
	}
	if s.Events != nil {
		if err := s.Events.PublishRSVPDeleted(id); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish rsvp.deleted: %v", err))
		}
	}
	return nil
}

func (s *RSVPService) maxAttendees() int {
	if s.MaxAttendees > 0 {
		return s.MaxAttendees
	}
	return DefaultMaxAttendees
}

// dispatchNotification hands the email off to a detached goroutine. The
// submission's outcome never depends on delivery; failures are only logged.
func (s *RSVPService) dispatchNotification(primaryGuest string, attendees []models.AttendeeInput, guestEmail string) bool {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		s.Logger.Debug("MAIL", "Notifier not configured, skipping host notification")
		return false
	}

	go func() {
		if err := s.Notifier.SendRSVPNotification(primaryGuest, attendees, guestEmail); err != nil {
			s.Logger.Error("MAIL", fmt.Sprintf("Host notification failed for %s: %v", primaryGuest, err))
			return
		}
		s.Logger.LogMail("SENT", primaryGuest, "host notification delivered")
	}()
	return true
}

func (s *RSVPService) publishSubmitted(rsvp models.RSVP, attendeeCount int) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishRSVPSubmitted(rsvp, attendeeCount); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish rsvp.submitted: %v", err))
	}
}
