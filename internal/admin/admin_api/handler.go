package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rsvp-service/internal/analytics"
	"rsvp-service/internal/guests"
	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
	"rsvp-service/internal/qr"
	"rsvp-service/internal/rsvp"
	rsvpdb "rsvp-service/internal/rsvp/db"
)

type Handler struct {
	GuestService *guests.GuestService
	RSVPService  *rsvp.RSVPService
	Analytics    *analytics.Service
	Logger       *logger.Logger
	InviteURL    string
}

func NewHandler(guestService *guests.GuestService, rsvpService *rsvp.RSVPService, analyticsService *analytics.Service, log *logger.Logger, inviteURL string) *Handler {
	return &Handler{
		GuestService: guestService,
		RSVPService:  rsvpService,
		Analytics:    analyticsService,
		Logger:       log,
		InviteURL:    inviteURL,
	}
}

// RegisterRoutes mounts the admin surface; the caller wraps it with the
// admin-key middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/guests", func(r chi.Router) {
		r.Get("/", h.ListGuests)
		r.Post("/", h.AddGuest)
		r.Patch("/{id}", h.UpdateGuest)
		r.Delete("/{id}", h.DeleteGuest)
	})
	r.Route("/rsvps", func(r chi.Router) {
		r.Get("/", h.ListRSVPs)
		r.Post("/", h.CreateRSVP)
		r.Patch("/{id}", h.UpdateRSVP)
		r.Delete("/{id}", h.DeleteRSVP)
	})
	r.Get("/summary", h.GetSummary)
	r.Get("/invite-qr", h.GetInviteQR)
}

// ---------------- GUESTS ----------------

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	list, err := h.GuestService.ListGuests(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListGuests: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"guests": list})
}

func (h *Handler) AddGuest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	guest, err := h.GuestService.AddGuest(r.Context(), req)
	if errors.Is(err, guests.ErrFullNameRequired) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddGuest: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusCreated, guest)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	guest, err := h.GuestService.UpdateGuest(r.Context(), id, req)
	switch {
	case errors.Is(err, guests.ErrNotFound):
		respondError(w, http.StatusNotFound, "Guest not found")
	case errors.Is(err, guests.ErrFullNameRequired):
		respondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("UpdateGuest: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
	default:
		respondJSON(w, http.StatusOK, guest)
	}
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.GuestService.DeleteGuest(r.Context(), id)
	if errors.Is(err, guests.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Guest not found")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteGuest: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ---------------- RSVPS ----------------

// ListRSVPs joins each record with its guest's allowance for capacity
// monitoring on the dashboard.
func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	records, err := h.RSVPService.ListRSVPs(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRSVPs: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	views := make([]models.AdminRSVPView, 0, len(records))
	for _, rec := range records {
		view := models.AdminRSVPView{
			RSVP:           rec,
			TotalAttending: len(rec.Attendees) + 1,
		}
		if rec.Guest != nil {
			allowed := rec.Guest.TotalSlots() + 1
			view.TotalAllowed = &allowed
		}
		views = append(views, view)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rsvps": views})
}

func (h *Handler) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.RSVPService.AdminSave(r.Context(), req)
	if errors.Is(err, rsvp.ErrPrimaryGuestRequired) {
		respondError(w, http.StatusBadRequest, "primaryGuest required")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRSVP: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (h *Handler) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.SubmitRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.RSVPService.AdminUpdate(r.Context(), id, req)
	switch {
	case errors.Is(err, rsvpdb.ErrRSVPNotFound):
		respondError(w, http.StatusNotFound, "RSVP not found")
	case errors.Is(err, rsvp.ErrPrimaryGuestRequired):
		respondError(w, http.StatusBadRequest, "primaryGuest required")
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("UpdateRSVP: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
	default:
		respondJSON(w, http.StatusOK, record)
	}
}

func (h *Handler) DeleteRSVP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.RSVPService.DeleteRSVP(r.Context(), id)
	if errors.Is(err, rsvpdb.ErrRSVPNotFound) {
		respondError(w, http.StatusNotFound, "RSVP not found")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteRSVP: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ---------------- DASHBOARD EXTRAS ----------------

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.GetAttendanceSummary(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSummary: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetInviteQR renders the public invite link as a PNG for sharing.
func (h *Handler) GetInviteQR(w http.ResponseWriter, r *http.Request) {
	png, err := qr.EncodeInviteURL(h.InviteURL, 0)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetInviteQR: %v", err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
