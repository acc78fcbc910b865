package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
	"github.com/trogers1052/skill-exchange-service/internal/metrics"
	"github.com/trogers1052/skill-exchange-service/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, auth *middleware.Authenticator, m *metrics.Metrics, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Instrument(m, log))

	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.RequireAuth)

	// Directory
	api.HandleFunc("/users", handler.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/skills", handler.ListSkills).Methods(http.MethodGet)
	api.HandleFunc("/skills/{id}", handler.GetSkill).Methods(http.MethodGet)
	api.HandleFunc("/me/skills", handler.AddOfferedSkill).Methods(http.MethodPost)
	api.HandleFunc("/me/skills/{skillID}", handler.RemoveOfferedSkill).Methods(http.MethodDelete)

	// Trades
	api.HandleFunc("/trades", handler.CreateTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades", handler.ListTrades).Methods(http.MethodGet)
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods(http.MethodGet)
	api.HandleFunc("/trades/{id}", handler.DeleteTrade).Methods(http.MethodDelete)
	api.HandleFunc("/trades/{id}/complete", handler.CompleteTrade).Methods(http.MethodPost)

	// Queue
	api.HandleFunc("/trades/{id}/apply", handler.Apply).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/invite", handler.Invite).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/queue", handler.ListQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue/{id}/respond", handler.RespondToInvitation).Methods(http.MethodPost)
	api.HandleFunc("/queue/{id}/resolve", handler.ResolveApplication).Methods(http.MethodPost)
	api.HandleFunc("/queue/{id}", handler.RemoveCandidate).Methods(http.MethodDelete)

	// Messages
	api.HandleFunc("/trades/{id}/messages", handler.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/messages", handler.ListMessages).Methods(http.MethodGet)
	api.HandleFunc("/trades/{id}/messages/stream", handler.StreamMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}", handler.DeleteMessage).Methods(http.MethodDelete)

	// Reviews
	api.HandleFunc("/trades/{id}/reviews", handler.CreateReview).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/reviews", handler.ListReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{id}", handler.UpdateReview).Methods(http.MethodPut)
	api.HandleFunc("/reviews/{id}", handler.DeleteReview).Methods(http.MethodDelete)

	return r
}
