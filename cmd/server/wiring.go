package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"recruitline/internal/conversation/cache"
	"recruitline/internal/conversation/events"
	conversationhandler "recruitline/internal/conversation/handler"
	conversationmetrics "recruitline/internal/conversation/metrics"
	"recruitline/internal/conversation/service"
	"recruitline/internal/conversation/store"
	candidatestore "recruitline/internal/conversation/store/candidate"
	conversationstore "recruitline/internal/conversation/store/conversation"
	jwttoken "recruitline/internal/jwt_token"
	"recruitline/internal/platform/config"
	"recruitline/internal/platform/kafka"
	"recruitline/internal/platform/kafka/consumer"
	"recruitline/internal/platform/kafka/producer"
	"recruitline/internal/platform/metrics"
	"recruitline/internal/platform/middleware"
	"recruitline/internal/platform/postgres"
	"recruitline/internal/platform/redis"
	"recruitline/pkg/platform/audit"
	"recruitline/pkg/platform/audit/outbox"
	"recruitline/pkg/platform/audit/publisher"
	"recruitline/pkg/platform/audit/store/failover"
	auditmemory "recruitline/pkg/platform/audit/store/memory"
	auditpostgres "recruitline/pkg/platform/audit/store/postgres"
	"recruitline/pkg/platform/circuit"
)

const asyncAuditBuffer = 1024

// app holds the wired services plus everything run and close need.
type app struct {
	admission  *service.Admission
	ledger     *service.Ledger
	storage    string
	health     []conversationhandler.Dependency
	background []func(ctx context.Context) error
	closers    []func() error
}

func (a *app) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer, platformMetrics *metrics.Metrics) (*app, error) {
	a := &app{storage: "memory"}
	ok := false
	defer func() {
		if !ok {
			a.close(log)
		}
	}()

	var (
		candidates    service.CandidateStore    = candidatestore.NewInMemory()
		conversations service.ConversationStore = conversationstore.NewInMemory()
		tx            service.AdmissionTx       = service.NewShardedTx(cfg.Server.TxTimeout)
		outboxStore   *auditpostgres.Store
	)

	pg, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pg != nil {
		a.closers = append(a.closers, pg.Close)
		a.health = append(a.health, pg)
		if err := store.Migrate(ctx, pg.DB); err != nil {
			return nil, err
		}
		if err := auditpostgres.Migrate(ctx, pg.DB); err != nil {
			return nil, err
		}
		candidates = candidatestore.NewPostgres(pg.DB)
		conversations = conversationstore.NewPostgres(pg.DB)
		tx = newAdmissionPostgresTx(pg.DB, cfg.Server.TxTimeout)
		outboxStore = auditpostgres.New(pg.DB)
		a.storage = "postgres"
	}

	var auditProducer *producer.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewClient(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		a.health = append(a.health, kafka.Health{Client: client})
		if err := kafka.EnsureTopics(ctx, client, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor,
			cfg.Kafka.AuditTopic, cfg.Kafka.StatusTopic); err != nil {
			return nil, err
		}
		auditProducer = producer.New(client, cfg.Kafka.AuditTopic)
	}

	auditPublisher := buildAuditPublisher(a, outboxStore, auditProducer, log, platformMetrics, cfg.Kafka)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(conversationmetrics.New(reg)),
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		a.health = append(a.health, rc)
		opts = append(opts, service.WithCache(cache.New(rc.Client, cache.WithTTL(cfg.Redis.CacheTTL))))
	}

	a.ledger = service.NewLedger(conversations, opts...)
	a.admission = service.NewAdmission(service.NewRegistry(candidates, opts...), a.ledger, tx, opts...)

	if len(cfg.Kafka.Brokers) > 0 {
		if err := addStatusConsumer(a, cfg.Kafka, log, platformMetrics); err != nil {
			return nil, err
		}
	}

	ok = true
	return a, nil
}

// buildAuditPublisher picks the audit path. With PostgreSQL, events go to the
// outbox inside the admission transaction and a relay forwards them to Kafka.
// Without it, events go straight to Kafka asynchronously, falling back to
// memory while the broker is failing.
func buildAuditPublisher(a *app, outboxStore *auditpostgres.Store, sink *producer.Producer, log *slog.Logger, platformMetrics *metrics.Metrics, cfg config.KafkaConfig) *publisher.Publisher {
	switch {
	case outboxStore != nil:
		if sink != nil {
			relay := outbox.NewRelay(outboxStore, sink, log,
				outbox.WithInterval(cfg.OutboxInterval),
				outbox.WithErrorHook(func(error) { platformMetrics.IncrementAuditRelayErrors() }),
			)
			a.background = append(a.background, relay.Run)
		} else {
			log.Warn("no kafka brokers configured, audit events stay in the outbox")
		}
		return publisher.NewPublisher(outboxStore, publisher.WithLogger(log))

	case sink != nil:
		var target audit.Store = failover.New(sink, auditmemory.NewInMemoryStore(), circuit.New("audit-kafka"), log)
		p := publisher.NewPublisher(target, publisher.WithAsyncBuffer(asyncAuditBuffer), publisher.WithLogger(log))
		a.closers = append(a.closers, func() error { p.Close(); return nil })
		return p

	default:
		return publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log))
	}
}

// addStatusConsumer starts the group consumer that applies status changes.
func addStatusConsumer(a *app, cfg config.KafkaConfig, log *slog.Logger, platformMetrics *metrics.Metrics) error {
	router := consumer.NewRouter(log, nil)
	router.Register(cfg.StatusTopic, events.NewStatusHandler(a.ledger, log, platformMetrics))

	client, err := kafka.NewClient(cfg, kafka.ConsumerOptions(cfg, router.Topics()...)...)
	if err != nil {
		return fmt.Errorf("status consumer: %w", err)
	}
	a.closers = append(a.closers, func() error { client.CloseAllowingRebalance(); return nil })
	a.background = append(a.background, consumer.New(client, router, log).Run)
	return nil
}

func tokenValidator(cfg config.AuthConfig) middleware.TokenValidator {
	if cfg.Mode == config.AuthModeJWT {
		return jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	}
	return middleware.NewStaticToken(cfg.APIToken)
}
