package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maltedev/listing-scraper/internal/parser"
	"github.com/playwright-community/playwright-go"
)

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

var ErrClosed = errors.New("browser is closed")

// Options is the launch configuration handed to a driver once.
type Options struct {
	Driver         string
	Headless       bool
	Args           []string
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	ProxyServer    string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Driver:   DriverPlaywright,
		Headless: true,
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "fr-FR",
		TimezoneID:     "Africa/Tunis",
		ExtraHeaders: map[string]string{
			"Accept-Language": "fr-FR,fr;q=0.9,en;q=0.8",
		},
	}
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: opts.ProxyServer,
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: opts.ExtraHeaders,
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Locale != "" {
		contextOpts.Locale = playwright.String(opts.Locale)
	}
	if opts.TimezoneID != "" {
		contextOpts.TimezoneId = playwright.String(opts.TimezoneID)
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

func (b *Browser) NewPage() (playwright.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	return page, nil
}

// NewSession opens a page whose Close also shuts the whole browser down.
func (b *Browser) NewSession() (*Session, error) {
	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	return &Session{page: page, owner: b, timeout: b.opts.Timeout}, nil
}

// Close tears down context, browser and the playwright driver. Only the
// first call does any work.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		var errs []error

		if b.context != nil {
			if err := b.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close context: %w", err))
			}
		}

		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}

		if b.pw != nil {
			if err := b.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
			}
		}

		b.closeErr = errors.Join(errs...)
		b.logger.Debug("browser closed", "error", b.closeErr)
	})

	return b.closeErr
}

// Session drives one playwright page.
type Session struct {
	page    playwright.Page
	owner   *Browser
	timeout time.Duration
	closed  bool
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return err
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("unexpected status %d", resp.Status())
	}

	return nil
}

func (s *Session) Evaluate(ctx context.Context, script string) (any, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.page.Evaluate(script)
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]parser.Element, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return locateAll(s.page.Locator(selector))
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close page: %w", err))
	}
	if err := s.owner.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) check(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}
