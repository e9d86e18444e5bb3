package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/maltedev/listing-scraper/internal/parser"
)

// ChromedpSession drives Chrome over the DevTools protocol. Element queries
// run against a snapshot of the rendered DOM taken at query time.
type ChromedpSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewChromedpSession(opts *Options) (*ChromedpSession, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedpFlags(opts)...)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	headers := make(network.Headers, len(opts.ExtraHeaders))
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &ChromedpSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.Timeout,
		logger:      slog.Default().With("component", "chromedp"),
	}, nil
}

func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Evaluate wraps the script so undefined and null results come back as nil
// instead of an error.
func (s *ChromedpSession) Evaluate(ctx context.Context, script string) (any, error) {
	var res struct {
		Value any `json:"value"`
	}
	wrapped := fmt.Sprintf("(() => { const v = (%s); return {value: v === undefined ? null : v}; })()", script)

	if err := s.run(ctx, chromedp.Evaluate(wrapped, &res)); err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (s *ChromedpSession) QueryAll(ctx context.Context, selector string) ([]parser.Element, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to snapshot page: %w", err)
	}

	doc, err := parser.NewDocument(html)
	if err != nil {
		return nil, err
	}
	return doc.QueryAll(selector)
}

func (s *ChromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelTab()
		s.cancelAlloc()
		s.logger.Debug("chrome closed", "error", s.closeErr)
	})
	return s.closeErr
}

// run executes actions on the tab, bounded by the session timeout and by the
// caller's context.
func (s *ChromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func chromedpFlags(opts *Options) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	}

	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ProxyServer != "" {
		flags = append(flags, chromedp.ProxyServer(opts.ProxyServer))
	}

	for _, arg := range opts.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags = append(flags, chromedp.Flag(name, value))
		} else {
			flags = append(flags, chromedp.Flag(name, true))
		}
	}

	return flags
}
