package guests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rsvp-service/internal/guests/db"
	"rsvp-service/internal/models"
)

var (
	ErrNotFound         = db.ErrGuestNotFound
	ErrFullNameRequired = errors.New("full_name required")
)

type GuestDBLayer interface {
	CreateGuest(ctx context.Context, guest models.Guest) (*models.Guest, error)
	GetGuestByID(ctx context.Context, id string) (*models.Guest, error)
	GetGuestByNameKey(ctx context.Context, nameKey string) (*models.Guest, error)
	ListGuests(ctx context.Context) ([]models.Guest, error)
	UpdateGuest(ctx context.Context, guest models.Guest) error
	DeleteGuest(ctx context.Context, id string) error
}

type GuestService struct {
	DB    GuestDBLayer
	Cache *Cache
}

func NewGuestService(db GuestDBLayer, cache *Cache) *GuestService {
	return &GuestService{DB: db, Cache: cache}
}

// FindGuestByName resolves a display name against the directory. The name is
// trimmed and matched case-insensitively via its normalized key.
func (s *GuestService) FindGuestByName(ctx context.Context, name string) (*models.Guest, error) {
	nameKey := models.NameKey(name)
	if nameKey == "" {
		return nil, ErrNotFound
	}

	if guest, ok := s.Cache.Get(ctx, nameKey); ok {
		return guest, nil
	}

	guest, err := s.DB.GetGuestByNameKey(ctx, nameKey)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, guest)
	return guest, nil
}

func (s *GuestService) ListGuests(ctx context.Context) ([]models.Guest, error) {
	return s.DB.ListGuests(ctx)
}

func (s *GuestService) AddGuest(ctx context.Context, req models.CreateGuestRequest) (*models.Guest, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if req.PlusOnesAllowed < 0 || req.KidsAllowed < 0 {
		return nil, errors.New("allowances must be non-negative")
	}

	guest, err := s.DB.CreateGuest(ctx, models.Guest{
		FullName:        fullName,
		PlusOnesAllowed: req.PlusOnesAllowed,
		KidsAllowed:     req.KidsAllowed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}
	s.Cache.Invalidate(ctx, guest.NameKey)
	return guest, nil
}

func (s *GuestService) UpdateGuest(ctx context.Context, id string, req models.UpdateGuestRequest) (*models.Guest, error) {
	guest, err := s.DB.GetGuestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := guest.NameKey

	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, ErrFullNameRequired
		}
		guest.FullName = fullName
	}
	if req.PlusOnesAllowed != nil {
		if *req.PlusOnesAllowed < 0 {
			return nil, errors.New("plus_ones_allowed must be non-negative")
		}
		guest.PlusOnesAllowed = *req.PlusOnesAllowed
	}
	if req.KidsAllowed != nil {
		if *req.KidsAllowed < 0 {
			return nil, errors.New("kids_allowed must be non-negative")
		}
		guest.KidsAllowed = *req.KidsAllowed
	}

	if err := s.DB.UpdateGuest(ctx, *guest); err != nil {
		return nil, err
	}
	guest.NameKey = models.NameKey(guest.FullName)
	s.Cache.Invalidate(ctx, oldKey, guest.NameKey)
	return guest, nil
}

func (s *GuestService) DeleteGuest(ctx context.Context, id string) error {
	guest, err := s.DB.GetGuestByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteGuest(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, guest.NameKey)
	return nil
}
