package trading

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// Store is the shared trade/queue/review store. Lookups that find nothing
// return a nil value and a nil error.
type Store interface {
	Reader
	// WithTx runs fn in one transaction. If fn returns an error nothing it
	// wrote is kept.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Reader serves the read-only listings. Every read goes to the store.
type Reader interface {
	GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	GetSkillByName(ctx context.Context, name string) (*models.Skill, error)
	ListSkills(ctx context.Context) ([]*models.Skill, error)
	ListUsers(ctx context.Context, search string, page models.Page) (models.PageResult[*models.User], error)
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	ListTradesForUser(ctx context.Context, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Trade], error)
	ListQueueEntries(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.QueueEntry], error)
	ListReviews(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Review], error)
}

// Tx is the write side. LockTrade and LockUser hold a row lock until the
// transaction ends, which serializes conflicting writers on one trade.
type Tx interface {
	// Skill catalog.
	GetSkills(ctx context.Context, ids []uuid.UUID) ([]*models.Skill, error)

	// Account directory.
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	LockUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	OfferedSkillIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error
	RemoveOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error
	SetUserRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error

	// Trades.
	InsertTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	LockTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, id uuid.UUID) error

	// Queue.
	GetQueueEntry(ctx context.Context, id uuid.UUID) (*models.QueueEntry, error)
	FindQueueEntry(ctx context.Context, tradeID, userID uuid.UUID) (*models.QueueEntry, error)
	InsertQueueEntry(ctx context.Context, e *models.QueueEntry) error
	UpdateQueueEntry(ctx context.Context, e *models.QueueEntry) error
	// DeleteQueueEntriesExcept removes every entry of the trade other than
	// keepID. uuid.Nil keeps nothing.
	DeleteQueueEntriesExcept(ctx context.Context, tradeID, keepID uuid.UUID) (int, error)

	// Reviews.
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetReviewByTrade(ctx context.Context, tradeID uuid.UUID) (*models.Review, error)
	InsertReview(ctx context.Context, r *models.Review) error
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
	ListRevieweeRatings(ctx context.Context, userID uuid.UUID) ([]decimal.Decimal, error)

	// Messages owned by a trade.
	DeleteTradeMessages(ctx context.Context, tradeID uuid.UUID) (int, error)
}

// EventPublisher receives trade events after their transaction commits.
type EventPublisher interface {
	PublishTradeEvent(ctx context.Context, event models.TradeEvent) error
}

// Recorder counts transitions for monitoring.
type Recorder interface {
	TradeTransition(transition string)
	ReviewMutation(action string)
}
