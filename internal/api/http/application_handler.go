package http

import (
	"net/http"

	"skillbridge-backend/internal/domain"

	"github.com/gorilla/mux"
)

const idempotencyHeader = "Idempotency-Key"

type submitRequest struct {
	Message *string `json:"message"`
}

type decisionRequest struct {
	Decision domain.Decision `json:"decision"`
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	app, err := h.svc.Applications.SubmitApplication(r.Context(), actor, mux.Vars(r)["id"], req.Message, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	app, err := h.svc.Applications.DecideApplication(r.Context(), actor, mux.Vars(r)["id"], req.Decision, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	app, err := h.svc.Applications.WithdrawApplication(r.Context(), actor, mux.Vars(r)["id"], r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	app, err := h.svc.Applications.GetApplication(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) ListOpportunityApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	apps, err := h.svc.Applications.ListOpportunityApplications(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": nonNil(apps)})
}

func (h *Handler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	apps, err := h.svc.Applications.ListMyApplications(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": nonNil(apps)})
}

func (h *Handler) ListApplicationMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.Notifications.ListApplicationMessages(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": nonNil(msgs)})
}
