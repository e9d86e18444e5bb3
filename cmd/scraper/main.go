package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/listing-scraper/internal/browser"
	"github.com/maltedev/listing-scraper/internal/config"
	"github.com/maltedev/listing-scraper/internal/database"
	"github.com/maltedev/listing-scraper/internal/events"
	"github.com/maltedev/listing-scraper/internal/logger"
	"github.com/maltedev/listing-scraper/internal/models"
	"github.com/maltedev/listing-scraper/internal/parser"
	"github.com/maltedev/listing-scraper/internal/scraper"
	"github.com/maltedev/listing-scraper/internal/storage"
	"github.com/redis/go-redis/v9"
)

const sinkTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var (
		url        = flag.String("url", cfg.Scraper.URL, "Listing page to scrape")
		maxScrolls = flag.Int("max-scrolls", cfg.Scraper.MaxScrolls, "Maximum number of scroll iterations")
		pause      = flag.Duration("pause", cfg.Scraper.ScrollPause, "Pause after each scroll")
		settle     = flag.Duration("settle", cfg.Scraper.SettleDelay, "Wait after navigation before collecting")
		output     = flag.String("output", cfg.Output.File, "JSON output file")
		driver     = flag.String("driver", cfg.Browser.Driver, "Browser driver: playwright or chromedp")
		htmlFile   = flag.String("html", "", "Scrape a saved listing page instead of launching a browser")
		headless   = flag.Bool("headless", cfg.Browser.Headless, "Run browser in headless mode")
	)
	flag.Parse()

	cfg.Scraper.URL = *url
	cfg.Scraper.MaxScrolls = *maxScrolls
	cfg.Scraper.ScrollPause = *pause
	cfg.Scraper.SettleDelay = *settle
	cfg.Output.File = *output
	cfg.Browser.Driver = *driver
	cfg.Browser.Headless = *headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// run returns before exiting so that every deferred close has happened.
	if err := run(cfg, *htmlFile, logger); err != nil {
		logger.Error("Scrape failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, htmlFile string, logger *slog.Logger) error {
	logger.Info("Starting listing scraper", "url", cfg.Scraper.URL, "driver", cfg.Browser.Driver)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := newSession(cfg, htmlFile)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}

	sel := cfg.Selectors
	extractor := parser.NewExtractor(parser.Selectors{
		Item:     sel.Item,
		Name:     sel.Name,
		Image:    sel.Image,
		Prices:   sel.Prices,
		Currency: sel.Currency,
		Colors:   sel.Colors,
		Link:     sel.Link,
	}, parser.WithBaseURL(cfg.Scraper.URL), parser.WithLogger(logger))

	s := scraper.NewListingScraper(session, extractor, sel.Item, scraper.Options{
		SettleDelay:   cfg.Scraper.SettleDelay,
		MaxIterations: cfg.Scraper.MaxScrolls,
		ScrollPause:   cfg.Scraper.ScrollPause,
	}, logger)
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err)
		}
	}()

	result := models.NewRun(cfg.Scraper.URL)

	products, err := s.Run(ctx, cfg.Scraper.URL)
	if err != nil {
		if !errors.Is(err, context.Canceled) || products == nil {
			return err
		}
		logger.Warn("Interrupted, keeping products collected so far", "count", len(products))
	}
	result.Finish(products)

	if err := storage.WriteProducts(cfg.Output.File, result.Products); err != nil {
		return err
	}
	logger.Info("Products written", "file", cfg.Output.File, "count", len(result.Products), "duration", result.Duration())

	// The sinks get a fresh context so an interrupt during the scrape does
	// not drop the export.
	sinkCtx, sinkCancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer sinkCancel()

	if cfg.Database.Enabled {
		if err := exportToDatabase(sinkCtx, cfg.Database, result, logger); err != nil {
			logger.Error("Database export failed", "error", err)
		}
	}

	if cfg.Redis.Enabled {
		if err := publishToRedis(sinkCtx, cfg.Redis, result, logger); err != nil {
			logger.Error("Stream publish failed", "error", err)
		}
	}

	fmt.Printf("Scraped %d unique products\n", len(result.Products))
	return nil
}

func newSession(cfg *config.Config, htmlFile string) (scraper.Session, error) {
	if htmlFile != "" {
		return browser.NewHTMLSession(htmlFile), nil
	}

	opts := browser.DefaultOptions()
	opts.Driver = cfg.Browser.Driver
	opts.Headless = cfg.Browser.Headless
	opts.Args = cfg.Browser.Args
	opts.Timeout = cfg.Browser.Timeout
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.Locale = cfg.Browser.Locale
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.ProxyServer = cfg.Browser.ProxyServer
	if cfg.Browser.UserAgent != "" {
		opts.UserAgent = cfg.Browser.UserAgent
	}

	if opts.Driver == browser.DriverChromedp {
		session, err := browser.NewChromedpSession(opts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	b, err := browser.New(opts)
	if err != nil {
		return nil, err
	}

	session, err := b.NewSession()
	if err != nil {
		b.Close()
		return nil, err
	}
	return session, nil
}

func exportToDatabase(ctx context.Context, cfg config.DatabaseConfig, result *models.Run, logger *slog.Logger) error {
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Name,
		MaxConns: cfg.MaxConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	store := database.NewRunStore(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.SaveRun(ctx, result)
}

func publishToRedis(ctx context.Context, cfg config.RedisConfig, result *models.Run, logger *slog.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	_, err := events.NewPublisher(client, cfg.Stream, logger).PublishListingScraped(ctx, result)
	return err
}
