package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookmaker/application"
	"bookmaker/config"
	"bookmaker/database"
	"bookmaker/domain/events"
	"bookmaker/domain/interfaces"
	"bookmaker/infrastructure"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// eventBus is what the unit of work publishes to after commit
type eventBus interface {
	interfaces.EventPublisher
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// App holds the wired use-case handlers and the background processes that
// feed them
type App struct {
	Wallet        application.WalletHandler
	Betting       application.BettingHandler
	Events        application.EventHandler
	EventQueries  application.EventQueryHandler
	Settlement    application.SettlementHandler
	MoneyRequests application.MoneyRequestHandler
	Achievements  application.AchievementHandler

	cfg          *config.Config
	registry     *prometheus.Registry
	metrics      *infrastructure.Metrics
	feedConsumer *infrastructure.OddsFeedConsumer
	checks       []healthCheck
	closers      []func() error
}

// Run initializes the application and blocks until ctx is canceled
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.WithField("environment", cfg.Environment).Info("Starting bookmaker...")

	app, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}

// Build connects every configured dependency and wires the handlers
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(),
		database.WithMaxConns(int32(cfg.DatabaseMaxConns)),
		database.WithLockTimeout(cfg.DatabaseLockTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.closers = append(app.closers, func() error {
		db.Close()
		return nil
	})
	app.addHealthCheck("database", db.Ping)
	log.Info("Database connection established successfully")

	catalog, err := config.LoadBadgeCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = infrastructure.NewMetrics(app.registry)

	bus, subscriber, err := app.setupEventBus(ctx)
	if err != nil {
		return nil, err
	}
	for _, eventType := range []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeBetPlaced,
		events.EventTypeBetSettled,
		events.EventTypeBadgeAwarded,
	} {
		bus.RegisterLocalHandler(eventType, app.metrics.ObserveEvent)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, bus)

	cache, notifier, err := app.setupNotifications(ctx)
	if err != nil {
		return nil, err
	}

	app.Wallet = application.NewWalletHandler(uowFactory)
	app.Betting = application.NewBettingHandler(uowFactory)
	app.Events = application.NewEventHandler(uowFactory, app.metrics)
	app.EventQueries = application.NewEventQueryHandler(uowFactory, cache)
	app.Settlement = application.NewSettlementHandler(uowFactory)
	app.MoneyRequests = application.NewMoneyRequestHandler(uowFactory)
	app.Achievements = application.NewAchievementHandler(uowFactory, catalog)

	notifications := application.NewNotificationHandler(notifier, cache)
	if err := application.RegisterApplicationSubscriptions(subscriber, app.Achievements, notifications); err != nil {
		return nil, fmt.Errorf("failed to register subscriptions: %w", err)
	}

	if cfg.KafkaEnabled() {
		reader := infrastructure.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaOddsTopic, cfg.KafkaGroupID)
		app.feedConsumer = infrastructure.NewOddsFeedConsumer(reader, app.Events)
		app.feedConsumer.OnError = app.metrics.ObserveFeedError
		app.closers = append(app.closers, app.feedConsumer.Close)
		log.WithFields(log.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaOddsTopic,
		}).Info("Odds feed consumer configured")
	}

	ok = true
	return app, nil
}

// setupEventBus uses NATS JetStream when configured and the in-process bus
// otherwise
func (a *App) setupEventBus(ctx context.Context) (eventBus, interfaces.EventSubscriber, error) {
	if !a.cfg.NATSEnabled() {
		log.Info("NATS not configured, using in-process event bus")
		bus := infrastructure.NewLocalEventBus()
		a.closers = append(a.closers, func() error {
			bus.Wait()
			return nil
		})
		return bus, bus, nil
	}

	natsClient := infrastructure.NewNATSClient(a.cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.closers = append(a.closers, natsClient.Close)
	a.addHealthCheck("nats", natsClient.Ping)

	subjectMapper := infrastructure.NewEventSubjectMapper()
	publisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := publisher.EnsureEventStream(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return publisher, infrastructure.NewNATSEventSubscriber(natsClient, subjectMapper), nil
}

// setupNotifications builds the snapshot cache and the notifier fan-out. The
// returned cache is nil when Redis is not configured.
func (a *App) setupNotifications(ctx context.Context) (interfaces.EventSnapshotCache, interfaces.Notifier, error) {
	var (
		cache     interfaces.EventSnapshotCache
		notifiers []interfaces.Notifier
	)

	if a.cfg.RedisAddr != "" {
		client, err := infrastructure.ConnectRedis(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.addHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})

		cache = infrastructure.NewRedisEventCache(client, a.cfg.EventCacheTTL)
		notifiers = append(notifiers, infrastructure.NewRedisNotifier(client))
		log.WithField("addr", a.cfg.RedisAddr).Info("Redis cache and notifier enabled")
	}

	if a.cfg.DiscordEnabled() {
		session, err := infrastructure.OpenDiscordSession(a.cfg.DiscordToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open discord session: %w", err)
		}
		a.closers = append(a.closers, session.Close)
		notifiers = append(notifiers, infrastructure.NewDiscordNotifier(session, a.cfg.DiscordChannelID))
		log.WithField("channelID", a.cfg.DiscordChannelID).Info("Discord notifier enabled")
	}

	if len(notifiers) == 0 {
		log.Warn("No notifier configured, client notifications will be dropped")
	}
	return cache, infrastructure.NewMultiNotifier(notifiers...), nil
}

func (a *App) addHealthCheck(name string, check func(ctx context.Context) error) {
	a.checks = append(a.checks, healthCheck{name: name, check: check})
}

func (a *App) health(ctx context.Context) error {
	for _, hc := range a.checks {
		if err := hc.check(ctx); err != nil {
			return fmt.Errorf("%s: %w", hc.name, err)
		}
	}
	return nil
}

// Run starts the metrics server and the odds feed consumer and waits for ctx
func (a *App) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	if a.cfg.MetricsAddr != "" {
		server := infrastructure.NewMetricsServer(a.cfg.MetricsAddr, a.registry, a.health)
		group.Go(func() error {
			log.WithField("addr", a.cfg.MetricsAddr).Info("Metrics server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if a.feedConsumer != nil {
		group.Go(func() error {
			return a.feedConsumer.Run(gctx)
		})
	}

	log.Info("Bookmaker is running")
	<-gctx.Done()
	log.Info("Shutting down bookmaker...")
	return group.Wait()
}

// Close releases every connection in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.WithError(err).Warn("Error during shutdown")
		}
	}
	a.closers = nil
}
