package rsvp_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"rsvp-service/internal/guests"
	guestsdb "rsvp-service/internal/guests/db"
	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
	"rsvp-service/internal/rsvp"
	rsvpdb "rsvp-service/internal/rsvp/db"
	"rsvp-service/internal/rsvp/rsvp_api"
)

type noopNotifier struct{}

func (noopNotifier) Enabled() bool { return false }
func (noopNotifier) SendRSVPNotification(string, []models.AttendeeInput, string) error {
	return nil
}

type testEnv struct {
	bunDB  *bun.DB
	guests *guestsdb.DB
	router chi.Router
}

// setupEnv wires the full public surface over an in-memory database: real
// stores, real services, disabled notifier.
func setupEnv(t *testing.T, directoryEnforced bool) *testEnv {
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

	log := logger.NewLogger()
	guestStore := &guestsdb.DB{Bun: bunDB}
	guestService := guests.NewGuestService(guestStore, nil)
	rsvpStore := &rsvpdb.DB{Bun: bunDB}
	rsvpService := rsvp.NewRSVPService(rsvpStore, guestService, noopNotifier{}, nil, log, directoryEnforced)

	handler := rsvp_api.NewHandler(rsvpService, guestService, log, directoryEnforced, rsvp.DefaultMaxAttendees)

	r := chi.NewRouter()
	r.Get("/api/health", handler.Health)
	r.Post("/api/check-guest", handler.CheckGuest)
	r.Post("/api/submit-rsvp", handler.SubmitRSVP)

	return &testEnv{bunDB: bunDB, guests: guestStore, router: r}
}

func (e *testEnv) seedGuest(t *testing.T, name string, plusOnes, kids int) *models.Guest {
	guest, err := e.guests.CreateGuest(context.Background(), models.Guest{
		FullName:        name,
		PlusOnesAllowed: plusOnes,
		KidsAllowed:     kids,
	})
	if err != nil {
		t.Fatalf("Failed to seed guest: %v", err)
	}
	return guest
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestInviteFlowEndToEnd(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()
	env.seedGuest(t, "Jane Doe", 2, 1)

	// Lookup is case-insensitive, so the invite page works however the
	// guest types their name.
	rec := env.do(t, http.MethodPost, "/api/check-guest", models.CheckGuestRequest{Name: "  JANE doe "})
	assert.Equal(t, http.StatusOK, rec.Code)

	var check models.CheckGuestResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.True(t, check.Found)
	assert.Equal(t, 2, check.PlusOnes)
	assert.Equal(t, 1, check.Kids)
	assert.Equal(t, 3, check.TotalSlots)

	rec = env.do(t, http.MethodPost, "/api/submit-rsvp", models.SubmitRSVPRequest{
		PrimaryGuest: "Jane Doe",
		GuestEmail:   "jane@example.com",
		Attendees: []models.AttendeeInput{
			{Name: "Bob", Age: "adult"},
			{Name: "  ", Age: "adult"},
			{Name: "Kid", Age: "child"},
		},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var submit models.SubmitRSVPResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submit))
	assert.True(t, submit.Success)
	assert.False(t, submit.EmailSent)

	// The blank entry was dropped before persisting.
	count, err := env.bunDB.NewSelect().Model((*models.Attendee)(nil)).Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	// Resubmitting replaces the record rather than stacking a second one.
	rec = env.do(t, http.MethodPost, "/api/submit-rsvp", models.SubmitRSVPRequest{
		PrimaryGuest: "jane doe",
		Attendees:    []models.AttendeeInput{{Name: "Bob", Age: "adult"}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rsvpCount, err := env.bunDB.NewSelect().Model((*models.RSVP)(nil)).Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, rsvpCount)

	count, err = env.bunDB.NewSelect().Model((*models.Attendee)(nil)).Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckGuestUnknownName(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodPost, "/api/check-guest", models.CheckGuestRequest{Name: "Nobody"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var check models.CheckGuestResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.False(t, check.Found)
}

func TestCheckGuestRequiresName(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodPost, "/api/check-guest", models.CheckGuestRequest{Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckGuestOpenMode(t *testing.T) {
	env := setupEnv(t, false)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodPost, "/api/check-guest", models.CheckGuestRequest{Name: "Walk-In Wendy"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var check models.CheckGuestResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.True(t, check.Found)
	assert.Equal(t, rsvp.DefaultMaxAttendees, check.TotalSlots)
}

func TestSubmitRejectsUnknownGuest(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodPost, "/api/submit-rsvp", models.SubmitRSVPRequest{PrimaryGuest: "Nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "guest not found")
}

func TestSubmitRejectsOverCapacity(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()
	env.seedGuest(t, "John Smith", 1, 0)

	rec := env.do(t, http.MethodPost, "/api/submit-rsvp", models.SubmitRSVPRequest{
		PrimaryGuest: "John Smith",
		Attendees: []models.AttendeeInput{
			{Name: "A", Age: "adult"},
			{Name: "B", Age: "adult"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity exceeded")

	count, err := env.bunDB.NewSelect().Model((*models.RSVP)(nil)).Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSubmitRequiresPrimaryGuestField(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodPost, "/api/submit-rsvp", models.SubmitRSVPRequest{PrimaryGuest: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "primaryGuest required")
}

func TestHealthEndpoint(t *testing.T) {
	env := setupEnv(t, true)
	defer env.bunDB.Close()

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
