package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tablebook/internal/app"
	"tablebook/internal/auth"
	"tablebook/internal/domain"
)

type Handlers struct {
	Q      *app.QueryService
	B      *app.BookingService
	P      *app.ProfileService
	M      *app.MessageService
	Tokens *auth.Tokens
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	// public
	s.mux.Post("/v1/auth/register", h.register)
	s.mux.Post("/v1/auth/login", h.login)
	s.mux.Get("/v1/restaurants", h.listRestaurants)
	s.mux.Get("/v1/restaurants/{id}", h.getRestaurant)
	s.mux.Get("/v1/restaurants/{id}/experiences", h.listExperiences)

	// authenticated
	s.mux.Group(func(g chi.Router) {
		g.Use(RequireAuth(h.Tokens))
		g.Post("/v1/reservations", h.bookTable)
		g.Get("/v1/reservations", h.listReservations)
		g.Delete("/v1/reservations/{id}", h.cancelReservation)
		g.Post("/v1/restaurants/{id}/waitlist", h.joinWaitlist)
		g.Delete("/v1/restaurants/{id}/waitlist", h.leaveWaitlist)
		g.Get("/v1/restaurants/{id}/waitlist", h.waitlistStatus)
		g.Post("/v1/experiences/{id}/purchases", h.purchaseExperience)
		g.Get("/v1/purchases", h.listPurchases)
		g.Get("/v1/profile", h.getProfile)
		g.Put("/v1/profile", h.updateProfile)
		g.Post("/v1/photos", h.uploadPhoto)
		g.Get("/v1/photos/{id}", h.getPhoto)
		g.Post("/v1/messages", h.sendMessage)
		g.Get("/v1/conversations", h.listConversations)
		g.Get("/v1/conversations/{peerID}", h.conversationHistory)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain sentinels onto problem responses.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func urlID64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

/********** restaurants **********/

func (h *Handlers) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	resp, err := h.Q.GetRestaurant(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getRestaurant body")
	}
}

func (h *Handlers) listRestaurants(w http.ResponseWriter, r *http.Request) {
	q := domain.RestaurantsQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	if v := r.URL.Query().Get("city"); v != "" {
		q.City = &v
	}
	if v := r.URL.Query().Get("cuisine"); v != "" {
		q.Cuisine = &v
	}
	if v := r.URL.Query().Get("q"); v != "" {
		q.Q = &v
	}

	out, err := h.Q.ListRestaurants(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listRestaurants body")
	}
}

func (h *Handlers) listExperiences(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID64(r, "id")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	xs, err := h.Q.ListExperiences(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": xs})
}
