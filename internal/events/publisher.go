package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeListingScraped is published once per finished run
	EventTypeListingScraped EventType = "LISTING_SCRAPED"
)

const source = "listing-scraper"

// StreamAdder is the part of the redis client the publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// ListingScrapedPayload is the JSON carried in the data field of a stream entry.
type ListingScrapedPayload struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	Timestamp  time.Time         `json:"timestamp"`
	RunID      string            `json:"run_id"`
	URL        string            `json:"url"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Count      int               `json:"count"`
	Products   []*models.Product `json:"products"`
	Source     string            `json:"source"`
}

type Publisher struct {
	redis  StreamAdder
	stream string
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(client StreamAdder, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
		now:    time.Now,
	}
}

// PublishListingScraped appends one entry describing the run to the stream.
func (p *Publisher) PublishListingScraped(ctx context.Context, run *models.Run) (string, error) {
	now := p.now()
	payload := ListingScrapedPayload{
		EventID:    run.ID.String(),
		EventType:  string(EventTypeListingScraped),
		Timestamp:  now,
		RunID:      run.ID.String(),
		URL:        run.URL,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Count:      len(run.Products),
		Products:   run.Products,
		Source:     source,
	}

	dataJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":      string(dataJSON),
			"type":      payload.EventType,
			"run_id":    payload.RunID,
			"url":       run.URL,
			"count":     payload.Count,
			"timestamp": fmt.Sprintf("%d", now.UnixNano()),
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("run published",
		"stream", p.stream,
		"entry_id", id,
		"run_id", payload.RunID,
		"products", payload.Count)

	return id, nil
}
