package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"rsvp-service/internal/models"
)

var ErrRSVPNotFound = errors.New("rsvp not found")

type DB struct {
	Bun *bun.DB
}

// UpsertWithAttendees inserts or updates the record keyed on
// primary_guest_key and replaces its full attendee set, all inside one
// transaction. Concurrent readers only ever see the old-complete or
// new-complete attendee set. Two submissions for the same key race on the
// conflict target; last write wins.
func (d *DB) UpsertWithAttendees(ctx context.Context, rsvp models.RSVP, attendees []models.AttendeeInput) (*models.RSVP, error) {
	now := time.Now().UTC()
	if rsvp.ID == "" {
		rsvp.ID = uuid.New().String()
	}
	if rsvp.CreatedAt.IsZero() {
		rsvp.CreatedAt = now
	}
	rsvp.UpdatedAt = now

	var saved models.RSVP
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rsvp).
			On("CONFLICT (primary_guest_key) DO UPDATE").
			Set("primary_guest_name = EXCLUDED.primary_guest_name").
			Set("guest_id = EXCLUDED.guest_id").
			Set("guest_email = EXCLUDED.guest_email").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return err
		}

		// On conflict the generated ID above is discarded; re-read the
		// canonical row for this key.
		if err := tx.NewSelect().
			Model(&saved).
			Where("primary_guest_key = ?", rsvp.PrimaryGuestKey).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}

		return replaceAttendees(ctx, tx, saved.ID, attendees)
	})
	if err != nil {
		return nil, err
	}
	return d.GetRSVPByID(ctx, saved.ID)
}

// UpdateWithAttendees updates an existing record by ID and replaces its
// attendee set in the same transaction.
func (d *DB) UpdateWithAttendees(ctx context.Context, rsvp models.RSVP, attendees []models.AttendeeInput) (*models.RSVP, error) {
	rsvp.UpdatedAt = time.Now().UTC()

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&rsvp).
			Column("primary_guest_name", "primary_guest_key", "guest_email", "updated_at").
			Where("id = ?", rsvp.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return ErrRSVPNotFound
		}
		return replaceAttendees(ctx, tx, rsvp.ID, attendees)
	})
	if err != nil {
		return nil, err
	}
	return d.GetRSVPByID(ctx, rsvp.ID)
}

// GetRSVPByID → fetch one record with its attendees in submission order
func (d *DB) GetRSVPByID(ctx context.Context, id string) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := d.Bun.NewSelect().
		Model(&rsvp).
		Relation("Attendees", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Where("rsvp.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRSVPNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

// ListRSVPs → all records with attendees and joined guest, newest first
func (d *DB) ListRSVPs(ctx context.Context) ([]models.RSVP, error) {
	rsvps := make([]models.RSVP, 0)
	err := d.Bun.NewSelect().
		Model(&rsvps).
		Relation("Attendees", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Relation("Guest").
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rsvps, nil
}

// DeleteRSVP removes a record and its attendee rows. The attendee delete is
// explicit so the behavior does not depend on the store enforcing cascades.
func (d *DB) DeleteRSVP(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Attendee)(nil)).
			Where("rsvp_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.RSVP)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return ErrRSVPNotFound
		}
		return nil
	})
}

func replaceAttendees(ctx context.Context, tx bun.Tx, rsvpID string, attendees []models.AttendeeInput) error {
	if _, err := tx.NewDelete().
		Model((*models.Attendee)(nil)).
		Where("rsvp_id = ?", rsvpID).
		Exec(ctx); err != nil {
		return err
	}
	if len(attendees) == 0 {
		return nil
	}

	rows := make([]models.Attendee, 0, len(attendees))
	for i, a := range attendees {
		rows = append(rows, models.Attendee{
			ID:       uuid.New().String(),
			RSVPID:   rsvpID,
			Name:     a.Name,
			Age:      a.Age,
			Position: i,
		})
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}
