package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/maltedev/listing-scraper/internal/parser"
)

// HTMLSession replays a saved listing page. Scrolling does nothing and the
// height never changes, so a scrape ends after one pass.
type HTMLSession struct {
	path   string
	doc    *parser.Node
	closed bool
}

func NewHTMLSession(path string) *HTMLSession {
	return &HTMLSession{path: path}
}

func (s *HTMLSession) Navigate(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := parser.NewDocumentFromReader(f)
	if err != nil {
		return err
	}

	s.doc = doc
	return nil
}

func (s *HTMLSession) Evaluate(_ context.Context, _ string) (any, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("snapshot not loaded")
	}

	html, err := s.doc.HTML()
	if err != nil {
		return nil, err
	}
	// Only the height probe has a result; it stays constant.
	return len(html), nil
}

func (s *HTMLSession) QueryAll(_ context.Context, selector string) ([]parser.Element, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.doc == nil {
		return nil, fmt.Errorf("snapshot not loaded")
	}
	return s.doc.QueryAll(selector)
}

func (s *HTMLSession) Close() error {
	s.closed = true
	s.doc = nil
	return nil
}
