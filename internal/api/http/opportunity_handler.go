package http

import (
	"net/http"
	"strings"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/matching"
	"skillbridge-backend/internal/security"
	"skillbridge-backend/internal/skills"

	"github.com/gorilla/mux"
)

// parseFilters reads q, skills, location and status. skills and status
// accept repeated parameters or comma separated lists.
func parseFilters(r *http.Request) matching.Filters {
	q := r.URL.Query()
	f := matching.Filters{
		SearchText:       q.Get("q"),
		RequiredSkills:   splitList(q["skills"]),
		Location:         q.Get("location"),
		UseProfileSkills: q.Get("use_profile_skills") == "true",
	}
	for _, s := range splitList(q["status"]) {
		f.Statuses = append(f.Statuses, domain.OpportunityStatus(s))
	}
	return f
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.svc.Opportunities.ListOpportunities(r.Context(), security.ActorFromContext(r.Context()), parseFilters(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": nonNil(opps)})
}

func (h *Handler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Opportunities.GetOpportunity(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var draft domain.OpportunityDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.svc.Opportunities.CreateOpportunity(r.Context(), actor, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) CloseOpportunity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Opportunities.CloseOpportunity(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ReopenOpportunity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Opportunities.ReopenOpportunity(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	candidates, err := h.svc.Opportunities.ListCandidates(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": nonNil(candidates)})
}

func (h *Handler) ListMyOpportunities(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opps, err := h.svc.Opportunities.ListMyOpportunities(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": nonNil(opps)})
}

func (h *Handler) RecommendOpportunities(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	opps, err := h.svc.Opportunities.RecommendOpportunities(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": nonNil(opps)})
}

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"skills": skills.Catalogue()})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
