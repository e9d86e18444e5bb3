package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	called := m.Called(ctx, args)
	return redis.NewStringResult(called.String(0), called.Error(1))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func finishedRun() *models.Run {
	run := models.NewRun("https://example.com/listing")
	p := models.NewProduct("Chemise", "https://example.com/1.jpg", "https://example.com/p/1")
	p.NewPrice = models.Float(120.5)
	run.Finish([]*models.Product{p})
	return run
}

func TestPublishListingScraped(t *testing.T) {
	run := finishedRun()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	client := new(MockRedis)
	var captured *redis.XAddArgs
	client.On("XAdd", mock.Anything, mock.AnythingOfType("*redis.XAddArgs")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*redis.XAddArgs) }).
		Return("1714564800000-0", nil).Once()

	pub := NewPublisher(client, "stream:listing_scrapes", discardLogger())
	pub.now = func() time.Time { return fixed }

	id, err := pub.PublishListingScraped(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, "1714564800000-0", id)
	client.AssertExpectations(t)

	require.NotNil(t, captured)
	assert.Equal(t, "stream:listing_scrapes", captured.Stream)

	values := captured.Values.(map[string]interface{})
	assert.Equal(t, string(EventTypeListingScraped), values["type"])
	assert.Equal(t, run.ID.String(), values["run_id"])
	assert.Equal(t, 1, values["count"])
	assert.Equal(t, "1714564800000000000", values["timestamp"])

	var payload ListingScrapedPayload
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
	assert.Equal(t, run.URL, payload.URL)
	assert.Equal(t, "listing-scraper", payload.Source)
	require.Len(t, payload.Products, 1)
	assert.Equal(t, "https://example.com/p/1", payload.Products[0].ProductLink)
	require.NotNil(t, payload.Products[0].NewPrice)
	assert.InDelta(t, 120.5, *payload.Products[0].NewPrice, 0.0001)
}

func TestPublishListingScrapedRedisError(t *testing.T) {
	client := new(MockRedis)
	client.On("XAdd", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

	pub := NewPublisher(client, "stream:listing_scrapes", discardLogger())

	id, err := pub.PublishListingScraped(context.Background(), finishedRun())
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "failed to publish to redis")
}
