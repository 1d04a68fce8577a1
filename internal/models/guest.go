package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Guest is a directory entry the host manages. NameKey is the lower-cased
// trimmed full name and is the lookup/conflict key, so matching is
// case-insensitive.
type Guest struct {
	bun.BaseModel `bun:"table:guests"`

	ID              string    `bun:"id,pk" json:"id"`
	FullName        string    `bun:"full_name,notnull" json:"full_name"`
	NameKey         string    `bun:"name_key,unique,notnull" json:"-"`
	PlusOnesAllowed int       `bun:"plus_ones_allowed,notnull,default:0" json:"plus_ones_allowed"`
	KidsAllowed     int       `bun:"kids_allowed,notnull,default:0" json:"kids_allowed"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"created_at"`
}

// TotalSlots is the maximum number of additional attendees beyond the guest.
func (g *Guest) TotalSlots() int {
	return g.PlusOnesAllowed + g.KidsAllowed
}

// NameKey normalizes a display name into the identity key used for guest
// lookups and RSVP upserts.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type CreateGuestRequest struct {
	FullName        string `json:"full_name"`
	PlusOnesAllowed int    `json:"plus_ones_allowed"`
	KidsAllowed     int    `json:"kids_allowed"`
}

// UpdateGuestRequest carries partial updates; nil fields are left unchanged.
type UpdateGuestRequest struct {
	FullName        *string `json:"full_name"`
	PlusOnesAllowed *int    `json:"plus_ones_allowed"`
	KidsAllowed     *int    `json:"kids_allowed"`
}

type CheckGuestRequest struct {
	Name string `json:"name"`
}

type CheckGuestResponse struct {
	Found      bool   `json:"found"`
	GuestID    string `json:"guestId,omitempty"`
	PlusOnes   int    `json:"plusOnes,omitempty"`
	Kids       int    `json:"kids,omitempty"`
	TotalSlots int    `json:"totalSlots,omitempty"`
}
