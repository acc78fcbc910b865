package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
)

// Catalog event types published by the catalog admin.
const (
	EventSkillUpserted   = "SKILL_UPSERTED"
	EventCatalogSnapshot = "CATALOG_SNAPSHOT"
	EventSkillRetired    = "SKILL_RETIRED"
)

// SkillRepository defines the catalog writes the consumer needs
type SkillRepository interface {
	UpsertSkill(ctx context.Context, name, description string) error
	SkillExists(ctx context.Context, name string) (bool, error)
}

// CatalogEvent represents a skill catalog event from Kafka
type CatalogEvent struct {
	EventType string           `json:"event_type"`
	Source    string           `json:"source"`
	Timestamp string           `json:"timestamp"`
	Data      CatalogEventData `json:"data"`
}

// CatalogEventData holds the data for the different catalog event types
type CatalogEventData struct {
	// For CATALOG_SNAPSHOT events
	Skills []CatalogSkill `json:"skills,omitempty"`

	// For SKILL_UPSERTED / SKILL_RETIRED events
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// CatalogSkill is one skill inside a snapshot
type CatalogSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

// SkillsConsumer keeps the skills table in step with the catalog topic
type SkillsConsumer struct {
	reader messageReader
	repo   SkillRepository
	log    *logger.Logger
}

// NewSkillsConsumer creates a new Kafka consumer for catalog events
func NewSkillsConsumer(brokers []string, topic, groupID string, repo SkillRepository, log *logger.Logger) *SkillsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-skills",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &SkillsConsumer{
		reader: reader,
		repo:   repo,
		log:    log,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *SkillsConsumer) Start(ctx context.Context) error {
	c.log.Info("starting skills consumer", "topic", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("skills consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.log.Error("error reading catalog message", "error", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error("error processing catalog message", "error", err, "offset", msg.Offset)
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *SkillsConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.log.Debug("received catalog message", "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

	var event CatalogEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal catalog event: %w", err)
	}

	switch event.EventType {
	case EventCatalogSnapshot:
		return c.handleSnapshot(ctx, event)

	case EventSkillUpserted:
		return c.handleSkillUpserted(ctx, event)

	case EventSkillRetired:
		// Trades and profiles may still reference the skill, so it stays.
		c.log.Info("skill retired from catalog, keeping in database", "skill", event.Data.Name)
		return nil

	default:
		c.log.Debug("ignoring unknown catalog event type", "event_type", event.EventType)
		return nil
	}
}

// handleSnapshot upserts every skill of a full catalog snapshot
func (c *SkillsConsumer) handleSnapshot(ctx context.Context, event CatalogEvent) error {
	c.log.Info("processing catalog snapshot", "skills", len(event.Data.Skills))

	for _, skill := range event.Data.Skills {
		name := normalizeSkillName(skill.Name)
		if name == "" {
			continue
		}
		if err := c.repo.UpsertSkill(ctx, name, skill.Description); err != nil {
			c.log.Error("error upserting skill", "skill", name, "error", err)
			continue
		}
	}
	return nil
}

// handleSkillUpserted processes a single skill event
func (c *SkillsConsumer) handleSkillUpserted(ctx context.Context, event CatalogEvent) error {
	name := normalizeSkillName(event.Data.Name)
	if name == "" {
		return fmt.Errorf("skill event without a name")
	}

	exists, err := c.repo.SkillExists(ctx, name)
	if err != nil {
		return err
	}
	if err := c.repo.UpsertSkill(ctx, name, event.Data.Description); err != nil {
		return fmt.Errorf("failed to upsert skill %s: %w", name, err)
	}

	if exists {
		c.log.Info("updated catalog skill", "skill", name)
	} else {
		c.log.Info("added catalog skill", "skill", name)
	}
	return nil
}

func normalizeSkillName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Close closes the Kafka consumer
func (c *SkillsConsumer) Close() error {
	return c.reader.Close()
}
