// Package app assembles the services from configuration. The server and the
// operator CLI share it so both see the same backends.
package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"bubble/internal/address"
	addressmetrics "bubble/internal/address/metrics"
	addressmemory "bubble/internal/address/store/memory"
	addresspg "bubble/internal/address/store/postgres"
	"bubble/internal/geofence"
	"bubble/internal/history"
	historymetrics "bubble/internal/history/metrics"
	"bubble/internal/history/sealer"
	historymemory "bubble/internal/history/store/memory"
	historypg "bubble/internal/history/store/postgres"
	historyredis "bubble/internal/history/store/redis"
	"bubble/internal/location"
	"bubble/internal/nearmiss"
	"bubble/internal/nearmiss/delivery"
	nearmissmetrics "bubble/internal/nearmiss/metrics"
	nearmissmemory "bubble/internal/nearmiss/store/memory"
	nearmisspg "bubble/internal/nearmiss/store/postgres"
	"bubble/internal/notify"
	"bubble/internal/platform/config"
	"bubble/internal/platform/kafka"
	platformpg "bubble/internal/platform/postgres"
	platformredis "bubble/internal/platform/redis"
	"bubble/internal/trust"
	trustmemory "bubble/internal/trust/store/memory"
	trustpg "bubble/internal/trust/store/postgres"
	"bubble/pkg/platform/audit"
	"bubble/pkg/platform/audit/publishers/compliance"
	auditmemory "bubble/pkg/platform/audit/store/memory"
	auditpg "bubble/pkg/platform/audit/store/postgres"
)

// App holds the wired services and the connections they share.
type App struct {
	Config     config.Config
	History    *history.Service
	Addresses  *address.Service
	Trust      *trust.Service
	Location   *location.Service
	NearMiss   *nearmiss.Service
	Dispatcher *delivery.Dispatcher
	Scheduler  *nearmiss.Scheduler
	Sweeper    *history.Sweeper

	// RunFinder is the near-miss event store, exposed for the CLI.
	RunFinder nearmiss.RunFinder

	db     *sql.DB
	redis  *platformredis.Client
	kafka  *kgo.Client
	logger *slog.Logger
}

// Build opens the configured backends and wires every service.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}
	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config
	if usesBackend(cfg, config.BackendPostgres) {
		db, err := platformpg.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		a.db = db
		if err := platformpg.Migrate(ctx, db); err != nil {
			return err
		}
	}
	if cfg.History.Backend == config.BackendRedis {
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.redis = client
	}
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		a.kafka = client
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka, a.logger); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) wire(_ context.Context) error {
	cfg := a.Config
	logger := a.logger

	ring, err := a.keyring()
	if err != nil {
		return err
	}
	historySvc, err := history.New(a.historyStore(), sealer.New(ring),
		history.WithLogger(logger),
		history.WithMetrics(historymetrics.New()),
		history.WithRetention(cfg.History.Retention),
	)
	if err != nil {
		return err
	}
	a.History = historySvc
	a.Sweeper = history.NewSweeper(historySvc, cfg.History.SweepInterval, logger)

	gateOpts := []trust.GateOption{trust.WithMinLevel(cfg.Trust.MinLevel)}
	if cfg.Trust.MutualTrust {
		gateOpts = append(gateOpts, trust.WithMutualTrust())
	}
	var edges trust.EdgeSource = trustmemory.New()
	if cfg.Trust.Backend == config.BackendPostgres {
		edges = trustpg.New(a.db)
	}
	trustSvc, err := trust.NewService(edges, trust.NewGate(gateOpts...))
	if err != nil {
		return err
	}
	a.Trust = trustSvc

	emitter := notify.New(a.sink())

	addressOpts := []address.Option{
		address.WithLogger(logger),
		address.WithMetrics(addressmetrics.New()),
		address.WithAuditPublisher(compliance.New(a.auditStore(), compliance.WithLogger(logger))),
		address.WithConfig(registryConfig(cfg.Registry)),
		address.WithNotifier(trustSvc, emitter),
	}
	var addressStore address.Store
	if cfg.Registry.Backend == config.BackendPostgres {
		pgStore := addresspg.New(a.db)
		addressStore = pgStore
		addressOpts = append(addressOpts, address.WithTx(addresspg.NewTx(a.db, pgStore)))
	} else {
		addressStore = addressmemory.New()
	}
	addressSvc, err := address.New(addressStore, addressOpts...)
	if err != nil {
		return err
	}
	a.Addresses = addressSvc

	classifier := geofence.New(geofence.Config{MovingThresholdKmh: cfg.Geofence.MovingThresholdKmh})
	locationSvc, err := location.New(addressSvc, historySvc, classifier, location.WithLogger(logger))
	if err != nil {
		return err
	}
	a.Location = locationSvc

	var events nearmiss.EventStore = nearmissmemory.New()
	if cfg.NearMiss.Backend == config.BackendPostgres {
		events = nearmisspg.New(a.db)
	}
	a.RunFinder = events
	nmMetrics := nearmissmetrics.New()
	nearMissSvc, err := nearmiss.New(historySvc, trustSvc, events,
		nearmiss.WithLogger(logger),
		nearmiss.WithMetrics(nmMetrics),
		nearmiss.WithConfig(nearmiss.Config{
			Match: nearmiss.MatchConfig{
				RadiusMeters: cfg.NearMiss.RadiusMeters,
				TimeWindow:   cfg.NearMiss.TimeWindow,
			},
			Workers:     cfg.NearMiss.Workers,
			MorningHour: cfg.NearMiss.MorningHour,
			Location:    cfg.NearMiss.Location(),
		}),
	)
	if err != nil {
		return err
	}
	a.NearMiss = nearMissSvc
	a.Scheduler = nearmiss.NewScheduler(nearMissSvc, events, cfg.NearMiss.RunHour, cfg.NearMiss.Location(), logger)

	dispatcher, err := delivery.New(events, emitter,
		delivery.WithLogger(logger),
		delivery.WithMetrics(nmMetrics),
		delivery.WithInterval(cfg.NearMiss.DeliveryInterval),
		delivery.WithBatchSize(cfg.NearMiss.DeliveryBatch),
	)
	if err != nil {
		return err
	}
	a.Dispatcher = dispatcher
	return nil
}

// keyring parses the configured master keys. Without any configured key an
// ephemeral one is generated, which only suits the in-memory history backend.
func (a *App) keyring() (*sealer.Keyring, error) {
	cfg := a.Config.History
	if len(cfg.MasterKeys) > 0 {
		return sealer.ParseKeyring(cfg.ActiveKeyRef, cfg.MasterKeys)
	}
	if cfg.Backend != config.BackendMemory {
		return nil, errors.New("HISTORY_MASTER_KEYS is required for a persistent history backend")
	}
	key := make([]byte, sealer.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	a.logger.Warn("no history master keys configured, using an ephemeral key")
	return sealer.ParseKeyring("ephemeral", []string{"ephemeral:" + base64.StdEncoding.EncodeToString(key)})
}

func (a *App) historyStore() history.Store {
	switch a.Config.History.Backend {
	case config.BackendPostgres:
		return historypg.New(a.db)
	case config.BackendRedis:
		return historyredis.New(a.redis.Client)
	default:
		return historymemory.New()
	}
}

func (a *App) auditStore() audit.Store {
	if a.db != nil {
		return auditpg.New(a.db)
	}
	return auditmemory.NewInMemoryStore()
}

func (a *App) sink() notify.Sink {
	if a.kafka != nil {
		return notify.NewKafkaSink(a.kafka)
	}
	return notify.NewLogSink(a.logger)
}

// Health reports whether the shared connections are reachable.
func (a *App) Health(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases every opened connection.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close postgres", "error", err)
		}
	}
}

func registryConfig(cfg config.RegistryConfig) address.Config {
	return address.Config{
		ChangeLock:         cfg.ChangeLock,
		MinRadiusMeters:    cfg.MinRadiusMeters,
		MaxRadiusMeters:    cfg.MaxRadiusMeters,
		MaxCustomAddresses: cfg.MaxCustomAddresses,
		DefaultRadius: map[geofence.Kind]float64{
			geofence.KindHome:   cfg.HomeRadiusMeters,
			geofence.KindWork:   cfg.WorkRadiusMeters,
			geofence.KindSchool: cfg.SchoolRadiusMeters,
			geofence.KindCustom: cfg.CustomRadiusMeters,
		},
	}
}

func usesBackend(cfg config.Config, b config.Backend) bool {
	return cfg.History.Backend == b || cfg.Registry.Backend == b ||
		cfg.Trust.Backend == b || cfg.NearMiss.Backend == b
}
