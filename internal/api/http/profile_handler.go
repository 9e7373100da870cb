package http

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/service"

	"github.com/gorilla/mux"
)

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var draft domain.ProfileDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Profiles.CreateProfile(r.Context(), actor, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profiles.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var draft domain.ProfileDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Profiles.UpdateProfile(r.Context(), actor, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadAvatar stores the raw request body as the caller's avatar.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	body := http.MaxBytesReader(w, r.Body, service.MaxAvatarBytes+1)
	p, err := h.svc.Profiles.UploadAvatar(r.Context(), actor, r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DownloadAvatar streams a stored avatar.
func (h *Handler) DownloadAvatar(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	file, err := h.svc.Profiles.OpenAvatar(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch filepath.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, file)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard.GetDashboard(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32)
	pageSize, _ := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32)
	notes, total, err := h.svc.Notifications.GetNotifications(r.Context(), actor, int32(page), int32(pageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": nonNil(notes),
		"total_count":   total,
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, domain.NewError(domain.KindValidation, "notification id must be numeric"))
		return
	}
	if err := h.svc.Notifications.MarkAsRead(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
