package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"rsvp-service/internal/models"
	"rsvp-service/internal/rsvp/db"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []interface{}{
		(*models.Guest)(nil),
		(*models.RSVP)(nil),
		(*models.Attendee)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func attendeeNames(rec *models.RSVP) []string {
	names := make([]string, 0, len(rec.Attendees))
	for _, a := range rec.Attendees {
		names = append(names, a.Name)
	}
	return names
}

func TestUpsertCreatesThenUpdatesInPlace(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	record := models.RSVP{
		PrimaryGuestName: "Jane Doe",
		PrimaryGuestKey:  "jane doe",
		GuestEmail:       "jane@example.com",
	}
	attendees := []models.AttendeeInput{
		{Name: "Bob", Age: "adult"},
		{Name: "Kid", Age: "child"},
	}

	first, err := store.UpsertWithAttendees(ctx, record, attendees)
	assert.NoError(t, err)
	assert.Len(t, first.Attendees, 2)

	// Same key again: must update in place, never duplicate.
	record.GuestEmail = "jane.doe@example.com"
	second, err := store.UpsertWithAttendees(ctx, record, attendees)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "jane.doe@example.com", second.GuestEmail)

	count, err := bunDB.NewSelect().Model((*models.RSVP)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	attendeeCount, err := bunDB.NewSelect().Model((*models.Attendee)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, attendeeCount)
}

func TestUpsertReplacesAttendeeSet(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	record := models.RSVP{PrimaryGuestName: "Jane Doe", PrimaryGuestKey: "jane doe"}

	_, err := store.UpsertWithAttendees(ctx, record, []models.AttendeeInput{
		{Name: "A", Age: "adult"},
		{Name: "B", Age: "adult"},
	})
	assert.NoError(t, err)

	updated, err := store.UpsertWithAttendees(ctx, record, []models.AttendeeInput{
		{Name: "C", Age: "child"},
	})
	assert.NoError(t, err)

	// Replace, not append: stale rows must not survive.
	assert.Equal(t, []string{"C"}, attendeeNames(updated))

	attendeeCount, err := bunDB.NewSelect().Model((*models.Attendee)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, attendeeCount)
}

func TestUpsertPreservesSubmissionOrder(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	record := models.RSVP{PrimaryGuestName: "Jane Doe", PrimaryGuestKey: "jane doe"}
	attendees := []models.AttendeeInput{
		{Name: "Third", Age: "adult"},
		{Name: "First", Age: "child"},
		{Name: "Second", Age: "adult"},
	}

	saved, err := store.UpsertWithAttendees(ctx, record, attendees)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Third", "First", "Second"}, attendeeNames(saved))
}

func TestUpsertWithNoAttendees(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	saved, err := store.UpsertWithAttendees(ctx, models.RSVP{
		PrimaryGuestName: "Solo",
		PrimaryGuestKey:  "solo",
	}, nil)
	assert.NoError(t, err)
	assert.Empty(t, saved.Attendees)
}

func TestUpdateWithAttendees(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	saved, err := store.UpsertWithAttendees(ctx, models.RSVP{
		PrimaryGuestName: "Jane Doe",
		PrimaryGuestKey:  "jane doe",
	}, []models.AttendeeInput{{Name: "Old", Age: "adult"}})
	assert.NoError(t, err)

	saved.PrimaryGuestName = "Jane Q. Doe"
	saved.PrimaryGuestKey = "jane q. doe"
	updated, err := store.UpdateWithAttendees(ctx, *saved, []models.AttendeeInput{{Name: "New", Age: "child"}})
	assert.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", updated.PrimaryGuestName)
	assert.Equal(t, []string{"New"}, attendeeNames(updated))

	_, err = store.UpdateWithAttendees(ctx, models.RSVP{ID: "missing", PrimaryGuestKey: "x"}, nil)
	assert.ErrorIs(t, err, db.ErrRSVPNotFound)
}

func TestListRSVPsNewestFirst(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := store.UpsertWithAttendees(ctx, models.RSVP{
		PrimaryGuestName: "First Submitter",
		PrimaryGuestKey:  "first submitter",
	}, nil)
	assert.NoError(t, err)

	_, err = store.UpsertWithAttendees(ctx, models.RSVP{
		PrimaryGuestName: "Second Submitter",
		PrimaryGuestKey:  "second submitter",
	}, []models.AttendeeInput{{Name: "Plus One", Age: "adult"}})
	assert.NoError(t, err)

	list, err := store.ListRSVPs(ctx)
	assert.NoError(t, err)
	assert.Len(t, list, 2)

	byName := make(map[string]int)
	for _, rec := range list {
		byName[rec.PrimaryGuestName] = len(rec.Attendees)
	}
	assert.Equal(t, 0, byName["First Submitter"])
	assert.Equal(t, 1, byName["Second Submitter"])
}

func TestDeleteRSVPRemovesAttendees(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	saved, err := store.UpsertWithAttendees(ctx, models.RSVP{
		PrimaryGuestName: "Jane Doe",
		PrimaryGuestKey:  "jane doe",
	}, []models.AttendeeInput{{Name: "Bob", Age: "adult"}})
	assert.NoError(t, err)

	assert.NoError(t, store.DeleteRSVP(ctx, saved.ID))

	count, err := bunDB.NewSelect().Model((*models.Attendee)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, store.DeleteRSVP(ctx, saved.ID), db.ErrRSVPNotFound)
}
