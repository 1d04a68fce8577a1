package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	AgeAdult = "adult"
	AgeChild = "child"
)

// RSVP is one record per guest (directory mode) or per normalized primary
// name (open mode). PrimaryGuestKey carries the unique conflict target for
// the submission upsert in both modes.
type RSVP struct {
	bun.BaseModel `bun:"table:rsvps"`

	ID               string    `bun:"id,pk" json:"id"`
	GuestID          string    `bun:"guest_id,nullzero" json:"guest_id,omitempty"`
	PrimaryGuestName string    `bun:"primary_guest_name,notnull" json:"primary_guest_name"`
	PrimaryGuestKey  string    `bun:"primary_guest_key,unique,notnull" json:"-"`
	GuestEmail       string    `bun:"guest_email,nullzero" json:"guest_email,omitempty"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,notnull" json:"updated_at"`

	Attendees []*Attendee `bun:"rel:has-many,join:id=rsvp_id" json:"attendees"`
	Guest     *Guest      `bun:"rel:belongs-to,join:guest_id=id" json:"-"`
}

// Attendee rows are owned by exactly one RSVP and replaced wholesale on every
// submission. Position preserves submission order for numbered listings.
type Attendee struct {
	bun.BaseModel `bun:"table:rsvp_attendees"`

	ID       string `bun:"id,pk" json:"id"`
	RSVPID   string `bun:"rsvp_id,notnull" json:"-"`
	Name     string `bun:"name,notnull" json:"name"`
	Age      string `bun:"age,notnull" json:"age"`
	Position int    `bun:"position,notnull" json:"-"`
}

// AttendeeInput is a raw attendee entry from a request body, before
// sanitization.
type AttendeeInput struct {
	Name string `json:"name"`
	Age  string `json:"age"`
}

type SubmitRSVPRequest struct {
	PrimaryGuest string          `json:"primaryGuest"`
	Attendees    []AttendeeInput `json:"attendees"`
	GuestEmail   string          `json:"guestEmail"`
}

type SubmitRSVPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"emailSent"`
}

// AdminRSVPView joins a record with its guest's allowance for host-side
// capacity monitoring. TotalAllowed is nil when the record has no directory
// guest (open mode).
type AdminRSVPView struct {
	RSVP
	TotalAttending int  `json:"total_attending"`
	TotalAllowed   *int `json:"total_allowed,omitempty"`
}
