package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tablebook/internal/app"
	"tablebook/internal/auth"
)

func (h *Handlers) bookTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID int64   `json:"restaurant_id"`
		PartySize    int     `json:"party_size"`
		StartsAt     string  `json:"starts_at"` // RFC 3339
		Note         *string `json:"note"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid starts_at", "starts_at must be RFC 3339")
		return
	}
	res, err := h.B.BookTable(r.Context(), auth.UserIDFromContext(r.Context()), app.BookRequest{
		RestaurantID: req.RestaurantID,
		PartySize:    req.PartySize,
		StartsAt:     startsAt,
		Note:         req.Note,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	rs, err := h.B.ListReservations(r.Context(), auth.UserIDFromContext(r.Context()), 50)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rs})
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	err := h.B.CancelReservation(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/********** waitlist **********/

func (h *Handlers) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req struct {
		PartySize int `json:"party_size"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	e, pos, err := h.B.JoinWaitlist(r.Context(), auth.UserIDFromContext(r.Context()), id, req.PartySize)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": e, "position": pos})
}

func (h *Handlers) leaveWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.B.LeaveWaitlist(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) waitlistStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	e, pos, err := h.B.WaitlistStatus(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": e, "position": pos})
}

/********** experience purchases **********/

func (h *Handlers) purchaseExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	p, err := h.B.PurchaseExperience(r.Context(), auth.UserIDFromContext(r.Context()), id, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) listPurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := h.B.ListPurchases(r.Context(), auth.UserIDFromContext(r.Context()), 50)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ps})
}
