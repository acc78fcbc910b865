package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/skill-exchange-service/internal/config"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// Client wraps the Redis client with trade message fan-out
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// TradeChannel is the pub/sub channel carrying a trade's new messages
func TradeChannel(tradeID uuid.UUID) string {
	return fmt.Sprintf("trade:%s:messages", tradeID)
}

// PublishMessage announces a stored message to the trade's subscribers
func (c *Client) PublishMessage(ctx context.Context, m *models.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := c.rdb.Publish(ctx, TradeChannel(m.TradeID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message %s: %w", m.ID, err)
	}
	return nil
}

// Subscription delivers the messages published on one trade
type Subscription struct {
	pubsub   *redis.PubSub
	messages chan *models.Message
	done     chan struct{}
	once     sync.Once
}

// SubscribeTrade subscribes to a trade's channel. The subscription must be
// closed by the caller.
func (c *Client) SubscribeTrade(ctx context.Context, tradeID uuid.UUID) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, TradeChannel(tradeID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to trade %s: %w", tradeID, err)
	}

	sub := &Subscription{
		pubsub:   pubsub,
		messages: make(chan *models.Message),
		done:     make(chan struct{}),
	}
	go sub.relay()
	return sub, nil
}

func (s *Subscription) relay() {
	defer close(s.messages)
	for raw := range s.pubsub.Channel() {
		m, err := DecodeMessage(raw.Payload)
		if err != nil {
			continue
		}
		select {
		case s.messages <- m:
		case <-s.done:
			return
		}
	}
}

// Messages returns the decoded message stream. It is closed with the subscription.
func (s *Subscription) Messages() <-chan *models.Message {
	return s.messages
}

// Close ends the subscription
func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

// DecodeMessage parses a payload written by PublishMessage
func DecodeMessage(payload string) (*models.Message, error) {
	var m models.Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &m, nil
}
