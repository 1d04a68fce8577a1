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

var ErrGuestNotFound = errors.New("guest not found")

type DB struct {
	Bun *bun.DB
}

// CreateGuest → insert a new directory entry
func (d *DB) CreateGuest(ctx context.Context, guest models.Guest) (*models.Guest, error) {
	if guest.ID == "" {
		guest.ID = uuid.New().String()
	}
	guest.NameKey = models.NameKey(guest.FullName)
	if guest.CreatedAt.IsZero() {
		guest.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(&guest).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// GetGuestByID → fetch one guest by its ID
func (d *DB) GetGuestByID(ctx context.Context, id string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// GetGuestByNameKey → exact lookup on the normalized name key
func (d *DB) GetGuestByNameKey(ctx context.Context, nameKey string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("name_key = ?", nameKey).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// ListGuests → all directory entries, stable order
func (d *DB) ListGuests(ctx context.Context) ([]models.Guest, error) {
	guests := make([]models.Guest, 0)
	err := d.Bun.NewSelect().
		Model(&guests).
		Order("full_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return guests, nil
}

// UpdateGuest → update allowed fields, keeping the name key in sync
func (d *DB) UpdateGuest(ctx context.Context, guest models.Guest) error {
	guest.NameKey = models.NameKey(guest.FullName)
	res, err := d.Bun.NewUpdate().
		Model(&guest).
		Column("full_name", "name_key", "plus_ones_allowed", "kids_allowed").
		Where("id = ?", guest.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// DeleteGuest → remove a guest; RSVP records cascade via the schema
func (d *DB) DeleteGuest(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Guest)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrGuestNotFound
	}
	return nil
}
