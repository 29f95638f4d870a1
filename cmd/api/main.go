package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sink"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type options struct {
	configPath  string
	migrate     bool
	showVersion bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("helpdesk: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("helpdesk-api", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	flagSet.BoolVar(&opts.migrate, "migrate", false, "apply SQL migrations before serving")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.showVersion {
		fmt.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
		return nil
	}

	logger, err := observability.NewLogger(cfg.Logger,
		zap.String("service", cfg.App.Name),
		zap.String("env", cfg.App.Env))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if pg.Enabled() && (cfg.Postgres.RunMigrations || opts.migrate) {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	var ticketRepo repository.TicketRepository
	if pg.Enabled() {
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
	} else {
		ticketRepo = repository.NewMemoryTicketRepository(nil)
	}

	var redis *persistence.Redis
	if cfg.Ephemeral.Backend == config.EphemeralBackendRedis {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
	}
	typing, feed := newEphemeralStores(cfg.Ephemeral, redis)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, feed, sink.New(cfg.Sink.WebhookURL, cfg.Sink.Timeout), logger)
	worker.StartNotificationWorker(notificationService)
	sweeperDone := worker.StartTypingSweeper(ctx, typing, cfg.Ephemeral.SweepInterval, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:               ticketRepo,
		Typing:                   typing,
		Feed:                     feed,
		Dispatcher:               dispatcher,
		NumberGenerator:          service.NewTicketNumberGenerator(cfg.Tickets.NumberLength),
		MaxCreateAttempts:        cfg.Tickets.MaxCreateAttempts,
		AllowPublicMessageDelete: cfg.Tickets.AllowPublicMessageDelete,
		DeleteRequiresArchive:    cfg.Tickets.DeleteRequiresArchive,
		PreviewLength:            cfg.Ephemeral.PreviewLength,
		Logger:                   logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var pgCheck, redisCheck handlers.Pinger
	if pg.Enabled() {
		pgCheck = pg
	}
	if redis != nil {
		redisCheck = redis
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pgCheck, redisCheck, metrics),
		Tickets:       handlers.NewTicketsHandler(ticketService),
		Notifications: handlers.NewNotificationsHandler(ticketService),
		Portal:        handlers.NewPortalHandler(ticketService),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("ticket_store", pg.Backend()),
			zap.String("ephemeral_backend", cfg.Ephemeral.Backend))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	cancel()
	<-sweeperDone
	return app.ShutdownWithTimeout(10 * time.Second)
}

func newEphemeralStores(cfg config.EphemeralConfig, redis *persistence.Redis) (ephemeral.TypingStore, ephemeral.NotificationFeed) {
	if redis != nil {
		return ephemeral.NewRedisTypingStore(redis.Client, cfg.RedisKeyPrefix, cfg.TypingTTL, nil),
			ephemeral.NewRedisNotificationFeed(redis.Client, cfg.RedisKeyPrefix, cfg.FeedCapacity, nil)
	}
	return ephemeral.NewMemoryTypingStore(cfg.TypingTTL, nil),
		ephemeral.NewMemoryNotificationFeed(cfg.FeedCapacity, nil)
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
