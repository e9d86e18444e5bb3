package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/maltedev/listing-scraper/internal/parser"
)

type state int

const (
	stateIdle state = iota
	stateNavigated
	stateScrolling
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateNavigated:
		return "navigated"
	case stateScrolling:
		return "scrolling"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// ListingScraper drives an infinite-scroll listing: it scrolls until the page
// stops growing and extracts every tile it sees along the way.
type ListingScraper struct {
	session      Session
	extractor    parser.Parser
	itemSelector string
	opts         Options
	logger       *slog.Logger

	collection *Collection
	state      state
	url        string

	closeOnce sync.Once
	closeErr  error

	sleep func(ctx context.Context, d time.Duration) error
}

func NewListingScraper(session Session, extractor parser.Parser, itemSelector string, opts Options, logger *slog.Logger) *ListingScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingScraper{
		session:      session,
		extractor:    extractor,
		itemSelector: itemSelector,
		opts:         opts,
		logger:       logger.With("component", "listing_scraper"),
		collection:   NewCollection(),
		sleep:        sleepContext,
	}
}

// Open navigates to the listing and waits for the initial content to render.
// A navigation failure is fatal to the run.
func (s *ListingScraper) Open(ctx context.Context, url string) error {
	s.logger.Info("opening listing", "url", url)

	if err := s.session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.url = url
	s.state = stateNavigated

	if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
		return err
	}

	return nil
}

// ScrollAndCollect scrolls to the bottom up to maxIterations times, pausing
// after each scroll, and merges every new tile into the result. It stops
// early once a scroll no longer changes the document height.
func (s *ListingScraper) ScrollAndCollect(ctx context.Context, maxIterations int, pause time.Duration) ([]*models.Product, error) {
	if s.state == stateIdle {
		return nil, ErrNotOpened
	}

	s.state = stateScrolling
	defer func() { s.state = stateDone }()

	lastHeight, err := s.height(ctx)
	if err != nil {
		s.logger.Warn("failed to measure initial height", "error", err)
		lastHeight = math.MinInt
	}

	for i := 0; i < maxIterations; i++ {
		iteration := i + 1

		if _, err := s.session.Evaluate(ctx, ScrollToBottomScript); err != nil {
			s.logger.Warn("scroll failed", "iteration", iteration, "error", err)
		}

		if err := s.sleep(ctx, pause); err != nil {
			return s.collection.Products(), err
		}

		added := s.collectVisible(ctx, iteration)

		newHeight, err := s.height(ctx)
		if err != nil {
			s.logger.Warn("failed to measure height, stopping", "iteration", iteration, "error", err)
			break
		}

		s.logger.Info("scroll iteration finished",
			"iteration", iteration,
			"new_products", added,
			"total_products", s.collection.Len(),
			"height", newHeight,
		)

		if newHeight == lastHeight {
			s.logger.Info("page height unchanged, no more content", "iteration", iteration)
			break
		}
		lastHeight = newHeight
	}

	return s.collection.Products(), nil
}

// Run opens url and collects with the configured limits.
func (s *ListingScraper) Run(ctx context.Context, url string) ([]*models.Product, error) {
	if err := s.Open(ctx, url); err != nil {
		return nil, err
	}
	return s.ScrollAndCollect(ctx, s.opts.MaxIterations, s.opts.ScrollPause)
}

// Close releases the browser session. It is safe to call more than once;
// the session is closed only the first time.
func (s *ListingScraper) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("closing browser session")
		s.closeErr = s.session.Close()
	})
	return s.closeErr
}

func (s *ListingScraper) State() string {
	return s.state.String()
}

func (s *ListingScraper) URL() string {
	return s.url
}

func (s *ListingScraper) Collected() int {
	return s.collection.Len()
}

// collectVisible extracts the tiles currently matching the item selector and
// returns how many new products were added. Query failures count as an empty
// iteration.
func (s *ListingScraper) collectVisible(ctx context.Context, iteration int) int {
	elements, err := s.session.QueryAll(ctx, s.itemSelector)
	if err != nil {
		s.logger.Warn("failed to locate items", "iteration", iteration, "selector", s.itemSelector, "error", err)
		return 0
	}

	added := 0
	for _, el := range elements {
		product, err := s.extractor.Extract(el)
		if err != nil {
			s.logger.Warn("discarding item", "iteration", iteration, "error", err)
			continue
		}
		if s.collection.Add(product) {
			added++
		}
	}

	return added
}

func (s *ListingScraper) height(ctx context.Context) (int, error) {
	v, err := s.session.Evaluate(ctx, ScrollHeightScript)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case float32:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected height value %v (%T)", v, v)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
