package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

const maxContentLength = 2000

// TradeGate resolves a trade for one of its participants.
type TradeGate interface {
	ParticipantTrade(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error)
}

// Store persists messages. Lookups return nil, nil when nothing matches.
type Store interface {
	InsertMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Message], error)
}

// Notifier fans a stored message out to live subscribers.
type Notifier interface {
	PublishMessage(ctx context.Context, m *models.Message) error
}

// Service lets the two participants of an open trade talk to each other.
type Service struct {
	trades   TradeGate
	store    Store
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the messaging service. notifier may be nil.
func NewService(trades TradeGate, store Store, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		trades:   trades,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SendRequest is a participant posting to a trade's conversation.
type SendRequest struct {
	TradeID  uuid.UUID
	SenderID uuid.UUID
	Content  string
}

func (r SendRequest) Validate() error {
	if r.TradeID == uuid.Nil {
		return trading.NewValidationError("trade ID is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return trading.NewValidationError("message content is required")
	}
	if len(r.Content) > maxContentLength {
		return trading.NewValidationError("message content must be at most %d characters", maxContentLength)
	}
	return nil
}

// Open returns the trade when userID may take part in its conversation.
func (s *Service) Open(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := s.trades.ParticipantTrade(ctx, tradeID, userID)
	if err != nil {
		return nil, err
	}
	if !trading.MessagingOpen(trade.Status) {
		return nil, trading.NewValidationError("messages are only available while the trade is accepted (status %s)", trade.Status)
	}
	return trade, nil
}

// Send stores a message addressed to the sender's counterpart.
func (s *Service) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	trade, err := s.Open(ctx, req.TradeID, req.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, ok := trade.Counterpart(req.SenderID)
	if !ok {
		return nil, trading.NewAuthorizationError("you are not a participant in this trade")
	}

	msg := &models.Message{
		ID:         uuid.New(),
		TradeID:    trade.ID,
		SenderID:   req.SenderID,
		ReceiverID: receiver,
		Content:    req.Content,
		SentAt:     s.now(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.PublishMessage(ctx, msg); err != nil {
			s.log.Warn("failed to fan out message", "message_id", msg.ID, "trade_id", msg.TradeID, "error", err)
		}
	}
	s.log.Debug("message sent", "message_id", msg.ID, "trade_id", msg.TradeID, "sender_id", msg.SenderID)
	return msg, nil
}

// List pages through a trade's conversation, newest first.
func (s *Service) List(ctx context.Context, tradeID, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Message], error) {
	if _, err := s.Open(ctx, tradeID, userID); err != nil {
		return models.PageResult[*models.Message]{}, err
	}
	return s.store.ListMessages(ctx, tradeID, search, page.Normalize())
}

// Delete removes a message. Only its sender may delete it.
func (s *Service) Delete(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return trading.NewNotFoundError("message %s does not exist", messageID)
	}
	if _, err := s.Open(ctx, msg.TradeID, userID); err != nil {
		return err
	}
	if msg.SenderID != userID {
		return trading.NewAuthorizationError("you can only delete your own messages")
	}
	if err := s.store.DeleteMessage(ctx, msg.ID); err != nil {
		return err
	}
	s.log.Debug("message deleted", "message_id", msg.ID, "trade_id", msg.TradeID)
	return nil
}
