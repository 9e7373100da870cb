package http

import (
	"net/http"

	"skillbridge-backend/internal/metrics"
	"skillbridge-backend/internal/security"
	"skillbridge-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services bundles what the HTTP API calls into.
type Services struct {
	Profiles      service.ProfileService
	Opportunities service.OpportunityService
	Applications  service.ApplicationService
	Dashboard     service.DashboardService
	Notifications service.NotificationService
}

type Handler struct {
	svc Services
}

// NewRouter registers the JSON API under /api/v1 together with /healthz and
// /metrics.
func NewRouter(svc Services, tm security.TokenManager) *mux.Router {
	h := &Handler{svc: svc}
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(tm))

	// Opportunities
	api.HandleFunc("/opportunities", h.ListOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/opportunities", h.CreateOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}", h.GetOpportunity).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/{id}/close", h.CloseOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}/reopen", h.ReopenOpportunity).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}/applications", h.SubmitApplication).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/{id}/applications", h.ListOpportunityApplications).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/{id}/candidates", h.ListCandidates).Methods(http.MethodGet)

	// Applications
	api.HandleFunc("/applications/{id}", h.GetApplication).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/decision", h.DecideApplication).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/withdraw", h.WithdrawApplication).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/messages", h.ListApplicationMessages).Methods(http.MethodGet)

	// Profiles
	api.HandleFunc("/profiles", h.CreateProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{id}", h.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/me/profile", h.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/me/avatar", h.UploadAvatar).Methods(http.MethodPut)
	api.HandleFunc("/avatars/{key}", h.DownloadAvatar).Methods(http.MethodGet)

	// Caller views
	api.HandleFunc("/me/applications", h.ListMyApplications).Methods(http.MethodGet)
	api.HandleFunc("/me/opportunities", h.ListMyOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/me/recommendations", h.RecommendOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/me/dashboard", h.GetDashboard).Methods(http.MethodGet)
	api.HandleFunc("/me/notifications", h.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/me/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	api.HandleFunc("/skills", h.ListSkills).Methods(http.MethodGet)

	return router
}
