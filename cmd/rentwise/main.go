package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/adapter/fsm"
	"github.com/neomorfeo/rentwise/internal/adapter/gateway"
	"github.com/neomorfeo/rentwise/internal/adapter/gridfs"
	"github.com/neomorfeo/rentwise/internal/adapter/mail"
	"github.com/neomorfeo/rentwise/internal/adapter/memory"
	"github.com/neomorfeo/rentwise/internal/adapter/metrics"
	"github.com/neomorfeo/rentwise/internal/adapter/otel"
	"github.com/neomorfeo/rentwise/internal/adapter/redis"
	"github.com/neomorfeo/rentwise/internal/adapter/river"
	"github.com/neomorfeo/rentwise/internal/adapter/sqlite"
	"github.com/neomorfeo/rentwise/internal/app"
	"github.com/neomorfeo/rentwise/internal/config"
	"github.com/neomorfeo/rentwise/internal/domain"
	"github.com/neomorfeo/rentwise/internal/logging"

	handler "github.com/neomorfeo/rentwise/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rentwise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		Exporter:       cfg.Telemetry.Exporter,
		Insecure:       cfg.Telemetry.Insecure || cfg.App.Environment == "development",
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Endpoint:       cfg.Telemetry.Endpoint,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	checks := []func(context.Context) error{db.PingContext}

	views := domain.ViewCounter(store.Listings())
	if cfg.Redis.Enabled {
		client := redis.NewClient(redis.Config{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer client.Close()
		counter := redis.NewViewCounter(client)
		if err := counter.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		views = counter
		checks = append(checks, counter.Ping)
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStorage()

	notifier := app.NewNotifier(mail.NewLogMailer(logger), logger)

	var publisher domain.EventPublisher = app.NewDirectPublisher(notifier)
	var queue *river.Client
	if cfg.Events.Driver == config.EventsRiver {
		queue, err = river.Setup(ctx, db, notifier, cfg.Events.Workers, logger)
		if err != nil {
			return fmt.Errorf("river: %w", err)
		}
		publisher = river.NewPublisher(queue)
	}

	m := metrics.New()

	// --- Application ---
	svc, err := newServices(deps{
		store:     store,
		views:     views,
		storage:   storage,
		gateways:  buildGateways(cfg.Gateways, logger),
		publisher: otel.NewTracingPublisher(publisher),
		metrics:   m,
		mutualAid: cfg.MutualAid,
		logger:    logger,
	})
	if err != nil {
		return err
	}

	// --- Adapters (in) ---
	routerCfg := handler.RouterConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.App.Version,
		Auth:        handler.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Metrics:     m,
		Files:       storage,
		HealthCheck: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Logger: logger,
	}
	if cfg.RateLimit.RPS > 0 {
		routerCfg.Limiter = handler.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.NewRouter(routerCfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	// River keeps working until it is stopped explicitly during shutdown.
	if queue != nil {
		if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("starting river: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("rentwise listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if queue != nil {
		if err := queue.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("river shutdown failed")
		}
	}

	logger.Info().Msg("stopped")
	if serveErr != nil {
		return fmt.Errorf("server: %w", serveErr)
	}
	return nil
}

// fileStorage is what the photo store must offer to both the listing
// service and the /files route.
type fileStorage interface {
	domain.FileStorage
	handler.FileServer
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (fileStorage, func(), error) {
	if cfg.Driver != config.StorageGridFS {
		return memory.NewStorage(cfg.BaseURL), func() {}, nil
	}

	client, err := gridfs.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	storage, err := gridfs.New(client.Database(cfg.Database), cfg.BaseURL)
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	return storage, disconnect, nil
}

// buildGateways registers one provider client per configured method.
// Cash needs no provider and is always available.
func buildGateways(cfgs []config.GatewayConfig, logger zerolog.Logger) map[domain.PaymentMethod]domain.PaymentGateway {
	gateways := map[domain.PaymentMethod]domain.PaymentGateway{
		domain.PaymentMethodCash: otel.NewTracingGateway(string(domain.PaymentMethodCash), gateway.Cash{}),
	}
	for _, g := range cfgs {
		retry := gateway.DefaultRetryConfig()
		if g.MaxAttempts > 0 {
			retry.MaxAttempts = g.MaxAttempts
		}
		provider := gateway.NewProvider(gateway.ProviderConfig{
			Name:             g.Method,
			BaseURL:          g.BaseURL,
			APIKey:           g.APIKey,
			Timeout:          g.Timeout,
			FailureThreshold: g.FailureThreshold,
			Cooldown:         g.Cooldown,
			Retry:            retry,
		}, logger)
		gateways[domain.PaymentMethod(g.Method)] = otel.NewTracingGateway(g.Method, provider)
	}
	return gateways
}

type deps struct {
	store     *sqlite.Store
	views     domain.ViewCounter
	storage   domain.FileStorage
	gateways  map[domain.PaymentMethod]domain.PaymentGateway
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	mutualAid config.MutualAidConfig
	logger    zerolog.Logger
}

// newServices builds the application services over traced repositories
// and metered transition validators.
func newServices(d deps) (handler.Services, error) {
	contribution, err := d.mutualAid.Contribution()
	if err != nil {
		return handler.Services{}, fmt.Errorf("mutual aid contribution: %w", err)
	}

	listings := otel.NewTracingListingRepository(d.store.Listings())
	bookings := otel.NewTracingBookingRepository(d.store.Bookings())
	opts := []app.Option{app.WithLogger(d.logger)}

	return handler.Services{
		Listings: app.NewListingService(listings, d.views, d.storage,
			metrics.Instrument(fsm.New(domain.ListingMachine), d.metrics), d.publisher, opts...),
		Bookings: app.NewBookingService(bookings, listings,
			metrics.Instrument(fsm.New(domain.BookingMachine), d.metrics), d.publisher, opts...),
		Payments: app.NewPaymentService(otel.NewTracingPaymentRepository(d.store.Payments()), bookings, d.gateways,
			metrics.Instrument(fsm.New(domain.PaymentMachine), d.metrics), d.publisher, opts...),
		Disputes: app.NewDisputeService(otel.NewTracingDisputeRepository(d.store.Disputes()), bookings,
			metrics.Instrument(fsm.New(domain.DisputeMachine), d.metrics), d.publisher, opts...),
		Subscriptions: app.NewSubscriptionService(
			otel.NewTracingSubscriptionRepository(d.store.Subscriptions()),
			otel.NewTracingContributionRepository(d.store.Contributions()),
			metrics.Instrument(fsm.New(domain.SubscriptionMachine), d.metrics),
			metrics.Instrument(fsm.New(domain.ContributionMachine), d.metrics),
			d.publisher,
			app.SubscriptionConfig{MonthlyContribution: contribution},
			opts...),
		Messages: app.NewMessageService(otel.NewTracingMessageRepository(d.store.Messages()), bookings, d.publisher, opts...),
		Reviews:  app.NewReviewService(otel.NewTracingReviewRepository(d.store.Reviews()), bookings, d.publisher, opts...),
	}, nil
}
