package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"rsvp-service/internal/guests/db"
	"rsvp-service/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := bunDB.NewCreateTable().Model((*models.Guest)(nil)).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to create guest table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func TestCreateAndLookupGuest(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := store.CreateGuest(ctx, models.Guest{
		FullName:        "Jane Doe",
		PlusOnesAllowed: 2,
		KidsAllowed:     1,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "jane doe", created.NameKey)
	assert.Equal(t, 3, created.TotalSlots())

	// Lookup goes through the normalized key, so casing doesn't matter.
	found, err := store.GetGuestByNameKey(ctx, models.NameKey("  JANE doe "))
	assert.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.GetGuestByNameKey(ctx, "nobody")
	assert.ErrorIs(t, err, db.ErrGuestNotFound)
}

func TestUpdateGuest(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := store.CreateGuest(ctx, models.Guest{FullName: "Jane Doe", PlusOnesAllowed: 1})
	assert.NoError(t, err)

	created.FullName = "Jane Smith"
	created.PlusOnesAllowed = 3
	assert.NoError(t, store.UpdateGuest(ctx, *created))

	updated, err := store.GetGuestByID(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.FullName)
	assert.Equal(t, "jane smith", updated.NameKey)
	assert.Equal(t, 3, updated.PlusOnesAllowed)

	assert.ErrorIs(t, store.UpdateGuest(ctx, models.Guest{ID: "missing", FullName: "X"}), db.ErrGuestNotFound)
}

func TestDeleteGuest(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := store.CreateGuest(ctx, models.Guest{FullName: "Jane Doe"})
	assert.NoError(t, err)

	assert.NoError(t, store.DeleteGuest(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteGuest(ctx, created.ID), db.ErrGuestNotFound)

	list, err := store.ListGuests(ctx)
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestListGuestsSortedByName(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Amy", "Mia"} {
		_, err := store.CreateGuest(ctx, models.Guest{FullName: name})
		assert.NoError(t, err)
	}

	list, err := store.ListGuests(ctx)
	assert.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "Amy", list[0].FullName)
	assert.Equal(t, "Zoe", list[2].FullName)
}
