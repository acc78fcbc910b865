package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
	"github.com/trogers1052/skill-exchange-service/internal/messaging"
	"github.com/trogers1052/skill-exchange-service/internal/middleware"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

// Trades is the marketplace core as seen by the HTTP layer.
type Trades interface {
	ListUsers(ctx context.Context, search string, page models.Page) (models.PageResult[*models.User], error)
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	AddOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) (*models.Skill, error)
	RemoveOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) (*models.Skill, error)

	CreateTrade(ctx context.Context, req trading.CreateTradeRequest) (*models.Trade, error)
	ListTrades(ctx context.Context, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Trade], error)
	GetTrade(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error)
	DeleteTrade(ctx context.Context, req trading.TradeActionRequest) error
	CompleteTrade(ctx context.Context, req trading.TradeActionRequest) (*models.Trade, error)

	Apply(ctx context.Context, req trading.ApplyRequest) (*models.QueueEntry, error)
	Invite(ctx context.Context, req trading.InviteRequest) (*models.QueueEntry, error)
	ListQueue(ctx context.Context, tradeID, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.QueueEntry], error)
	RespondToInvitation(ctx context.Context, req trading.RespondRequest) (*models.Trade, error)
	ResolveApplication(ctx context.Context, req trading.RespondRequest) (*models.Trade, error)
	RemoveCandidate(ctx context.Context, req trading.RemoveCandidateRequest) (*models.Trade, error)

	CreateReview(ctx context.Context, req trading.CreateReviewRequest) (*models.Review, error)
	UpdateReview(ctx context.Context, req trading.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID, reviewerID uuid.UUID) error
	ListReviews(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Review], error)
}

// Messages is the per-trade conversation service.
type Messages interface {
	Open(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error)
	Send(ctx context.Context, req messaging.SendRequest) (*models.Message, error)
	List(ctx context.Context, tradeID, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Message], error)
	Delete(ctx context.Context, messageID, userID uuid.UUID) error
}

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Handler needs. Streams, DB and Redis may be nil.
type Deps struct {
	Trades       Trades
	Messages     Messages
	Streams      Subscriber
	DB           Pinger
	Redis        Pinger
	KafkaEnabled bool
	Log          *logger.Logger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	trades       Trades
	messages     Messages
	streams      Subscriber
	db           Pinger
	redis        Pinger
	kafkaEnabled bool
	log          *logger.Logger
}

// NewHandler creates a new Handler
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		trades:       d.Trades,
		messages:     d.Messages,
		streams:      d.Streams,
		db:           d.DB,
		redis:        d.Redis,
		kafkaEnabled: d.KafkaEnabled,
		log:          log,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := map[string]string{}
	allHealthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if h.kafkaEnabled {
		services["kafka"] = "configured"
	} else {
		services["kafka"] = "not configured"
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields,omitempty"`
}

// respondError maps a service error onto a status code. Anything that is not
// a classified rejection is logged and reported as a 500 without details.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	te, ok := trading.AsError(err)
	if !ok {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	status := http.StatusBadRequest
	switch te.Kind {
	case trading.KindNotFound:
		status = http.StatusNotFound
	case trading.KindAuthorization:
		status = http.StatusForbidden
	}
	respondJSON(w, status, errorBody{Error: te.Message, Fields: te.Fields})
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// currentUser returns the caller set by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	return id, ok
}

// pathID parses the named mux variable as a uuid.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error:  "invalid " + name,
			Fields: map[string]any{name: raw},
		})
		return uuid.Nil, false
	}
	return id, true
}

// listParams reads ?search= and ?page= for paginated listings.
func listParams(w http.ResponseWriter, r *http.Request) (string, models.Page, bool) {
	q := r.URL.Query()
	page := models.Page{Number: 1, Size: models.DefaultPageSize}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusBadRequest, errorBody{
				Error:  "page must be a positive integer",
				Fields: map[string]any{"page": raw},
			})
			return "", page, false
		}
		page.Number = n
	}
	return q.Get("search"), page, true
}

// ratingBody is shared by review create and update.
type ratingBody struct {
	Rating   *decimal.Decimal `json:"rating"`
	Feedback string           `json:"feedback"`
}
