package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/infrastructure/feed"
	"ChannelPublisher/internal/infrastructure/market"
	"ChannelPublisher/internal/infrastructure/ratelimit"
	"ChannelPublisher/internal/infrastructure/scheduler"
	"ChannelPublisher/internal/infrastructure/storage"
	"ChannelPublisher/internal/infrastructure/telegram"
	"ChannelPublisher/internal/infrastructure/translate"
	"ChannelPublisher/internal/logging"
	"ChannelPublisher/internal/metrics"
	"ChannelPublisher/internal/ports"
	"ChannelPublisher/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLiteRepository
	metrics   *metrics.Metrics
	scheduler *usecase.Scheduler
	commands  *usecase.Commands
	poller    *telegram.Poller
}

// New opens the store and builds every component. The caller owns Close.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}

	m := metrics.New()
	loc := cfg.Scheduler.Location()

	limiter := ratelimit.NewHostLimiter(cfg.HTTP.MinHostInterval)
	feeds := feed.NewSource(cfg.HTTP.FeedTimeout, cfg.HTTP.UserAgent, limiter)
	collector := feed.NewCollector(feeds, cfg.Trends.Sources, cfg.Trends.EntriesPerFeed,
		baseLogger.With("component", "feed.collector"))

	var translator ports.Translator = translate.Noop{}
	if cfg.Translate.Enabled {
		translator = translate.NewGoogleClient(cfg.Translate)
	}

	detector := usecase.NewTrendDetector(usecase.TrendDetectorDeps{
		Feed:      collector,
		Trends:    store,
		Keywords:  cfg.Trends.Keywords,
		Threshold: cfg.Trends.Threshold,
		JitterMin: cfg.Trends.JitterMin,
		JitterMax: cfg.Trends.JitterMax,
		Location:  loc,
		Logger:    baseLogger.With("component", "trends"),
		Metrics:   m,
	})

	generator := usecase.NewGenerator(usecase.GeneratorDeps{
		Content:  store,
		Trends:   store,
		Stats:    store,
		Market:   market.NewBinanceClient(cfg.Market, baseLogger.With("component", "market")),
		Slots:    cfg.Schedule,
		Location: loc,
		Logger:   baseLogger.With("component", "generator"),
		Metrics:  m,
	})

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Feeds:            feeds,
		Items:            store,
		Translator:       translator,
		Sources:          cfg.News.Sources,
		EntriesPerSource: cfg.News.EntriesPerSource,
		SummaryMaxLength: cfg.News.SummaryMaxLength,
		Logger:           baseLogger.With("component", "ingest"),
		Metrics:          m,
	})

	client := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.SendTimeout+cfg.Telegram.PollTimeout)
	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Queue:    store,
		Sender:   telegram.NewNotifier(client, cfg.Telegram.ChannelID, cfg.Telegram.SendTimeout),
		Lease:    cfg.Scheduler.ClaimLease,
		Location: loc,
		Logger:   baseLogger.With("component", "delivery"),
		Metrics:  m,
	})

	cycle := usecase.NewCycle(usecase.CycleDeps{
		Detector:    detector,
		Generator:   generator,
		Ingestor:    ingestor,
		Publisher:   publisher,
		DetectEvery: cfg.Scheduler.DetectEvery,
		IngestEvery: cfg.Scheduler.IngestEvery,
		Logger:      baseLogger.With("component", "cycle"),
		Metrics:     m,
	})

	commands := usecase.NewCommands(usecase.CommandsDeps{
		Detector:  detector,
		Ingestor:  ingestor,
		Generator: generator,
		Stats:     store,
		Location:  loc,
		Logger:    baseLogger.With("component", "commands"),
	})

	driver := scheduler.NewTicker(cfg.Scheduler.TickInterval, cfg.Scheduler.FailureBackoff,
		baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		metrics:   m,
		scheduler: usecase.NewScheduler(driver, cycle),
		commands:  commands,
		poller: telegram.NewPoller(client, commands, cfg.Telegram.AdminIDs, cfg.Telegram.PollTimeout,
			baseLogger.With("component", "telegram.poller")),
	}, nil
}

// Commands exposes the operator command surface for one-shot CLI use.
func (a *Application) Commands() *usecase.Commands {
	return a.commands
}

// Run drives the publishing loop, the command poller and, when configured,
// the metrics endpoint until ctx is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.logger.Info("channel publisher started",
		"channel", a.cfg.Telegram.ChannelID,
		"timezone", a.cfg.Scheduler.Location().String(),
		"tick", a.cfg.Scheduler.TickInterval)

	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})
	g.Go(func() error {
		return a.poller.Run(ctx)
	})
	if addr := a.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			return a.serveMetrics(ctx, addr)
		})
	}

	err := g.Wait()
	a.logger.Info("channel publisher stopped")
	return err
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

func (a *Application) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
