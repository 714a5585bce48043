package httpserver

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tablebook/internal/auth"
	"tablebook/internal/domain"
)

type credentialsRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
}

type sessionResponse struct {
	Token   string             `json:"token"`
	Profile domain.UserProfile `json:"profile"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}
	u, err := h.P.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeErr(w, err)
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Profile: u})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}
	u, err := h.P.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// same response for unknown email and wrong password
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Profile: u})
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.P.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName *string  `json:"display_name"`
		Phone       *string  `json:"phone"`
		AvatarID    *string  `json:"avatar_id"`
		Dietary     []string `json:"dietary"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	u, err := h.P.UpdateProfile(r.Context(), auth.UserIDFromContext(r.Context()), domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		AvatarID:    req.AvatarID,
		Dietary:     req.Dietary,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

/********** photos **********/

const maxUploadBytes = 8 << 20 // hard cap before the service's own limit

// readUpload accepts either a raw image body or a multipart form carrying
// the image under a "photo" (or "file") part. Returns the bytes and the
// content type that describes them.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "could not read upload")
			return nil, "", false
		}
		return data, ct, true
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "could not parse multipart form")
		return nil, "", false
	}
	file, hdr, err := r.FormFile("photo")
	if err != nil {
		file, hdr, err = r.FormFile("file")
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", `multipart form needs a "photo" file part`)
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "could not read upload")
		return nil, "", false
	}
	return data, hdr.Header.Get("Content-Type"), true
}

func (h *Handlers) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := readUpload(w, r)
	if !ok {
		return
	}
	if len(data) > maxUploadBytes {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Too Large", "upload exceeds limit")
		return
	}
	p, err := h.P.UploadPhoto(r.Context(), auth.UserIDFromContext(r.Context()), contentType, data)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}

func (h *Handlers) getPhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.P.GetPhoto(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", p.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Data); err != nil {
		log.Error().Err(err).Msg("failed to write photo body")
	}
}
