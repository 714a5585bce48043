package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tablebook/internal/auth"
)

func (h *Handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID string `json:"recipient_id"`
		Body        string `json:"body"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	m, err := h.M.Send(r.Context(), auth.UserIDFromContext(r.Context()), req.RecipientID, req.Body)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	cs, err := h.M.Inbox(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cs})
}

func (h *Handlers) conversationHistory(w http.ResponseWriter, r *http.Request) {
	ms, err := h.M.History(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "peerID"), 100)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ms})
}
