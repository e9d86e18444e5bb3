package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/listing-scraper/internal/parser"
)

var ErrNotOpened = errors.New("scraper has not navigated to a listing")

const (
	ScrollToBottomScript = `window.scrollTo(0, document.body.scrollHeight)`
	ScrollHeightScript   = `document.body.scrollHeight`
)

// Session is the browser automation capability the scraper drives.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string) (any, error)
	QueryAll(ctx context.Context, selector string) ([]parser.Element, error)
	Close() error
}

type Options struct {
	SettleDelay   time.Duration
	MaxIterations int
	ScrollPause   time.Duration
}

func DefaultOptions() Options {
	return Options{
		SettleDelay:   3 * time.Second,
		MaxIterations: 10,
		ScrollPause:   2 * time.Second,
	}
}
