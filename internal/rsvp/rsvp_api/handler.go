package rsvp_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rsvp-service/internal/guests"
	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
	"rsvp-service/internal/rsvp"
)

type Handler struct {
	RSVPService  *rsvp.RSVPService
	GuestService *guests.GuestService
	Logger       *logger.Logger

	DirectoryEnforced bool
	MaxAttendees      int
}

func NewHandler(rsvpService *rsvp.RSVPService, guestService *guests.GuestService, log *logger.Logger, directoryEnforced bool, maxAttendees int) *Handler {
	return &Handler{
		RSVPService:       rsvpService,
		GuestService:      guestService,
		Logger:            log,
		DirectoryEnforced: directoryEnforced,
		MaxAttendees:      maxAttendees,
	}
}

// CheckGuest resolves an invitee name against the directory so the invite
// page can show the allowance before submission. A miss is a normal 200 with
// found=false, never an error.
func (h *Handler) CheckGuest(w http.ResponseWriter, r *http.Request) {
	var req models.CheckGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name required")
		return
	}

	if !h.DirectoryEnforced {
		// Open mode: everyone is invited, only the flat ceiling applies.
		respondJSON(w, http.StatusOK, models.CheckGuestResponse{
			Found:      true,
			TotalSlots: h.MaxAttendees,
		})
		return
	}

	guest, err := h.GuestService.FindGuestByName(r.Context(), name)
	if errors.Is(err, guests.ErrNotFound) {
		respondJSON(w, http.StatusOK, models.CheckGuestResponse{Found: false})
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckGuest: lookup failed: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, models.CheckGuestResponse{
		Found:      true,
		GuestID:    guest.ID,
		PlusOnes:   guest.PlusOnesAllowed,
		Kids:       guest.KidsAllowed,
		TotalSlots: guest.TotalSlots(),
	})
}

// SubmitRSVP runs the public submission workflow and maps workflow errors to
// the API taxonomy: validation and unknown-guest failures are 400, store
// failures are a generic 500.
func (h *Handler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("SubmitRSVP: failed to decode request body: %v", err))
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, emailSent, err := h.RSVPService.Submit(r.Context(), req)
	if err != nil {
		var capErr *rsvp.CapacityError
		switch {
		case errors.Is(err, rsvp.ErrPrimaryGuestRequired):
			respondError(w, http.StatusBadRequest, "primaryGuest required")
		case errors.As(err, &capErr):
			respondError(w, http.StatusBadRequest, capErr.Error())
		case errors.Is(err, rsvp.ErrGuestNotFound):
			// Observed behavior keeps this at 400 rather than 404.
			respondError(w, http.StatusBadRequest, rsvp.ErrGuestNotFound.Error())
		default:
			h.Logger.Error("API", fmt.Sprintf("SubmitRSVP: %v", err))
			respondError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.Logger.Info("API", fmt.Sprintf("SubmitRSVP: record %s saved", record.ID))
	respondJSON(w, http.StatusOK, models.SubmitRSVPResponse{
		Success:   true,
		Message:   "RSVP submitted successfully",
		EmailSent: emailSent,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
