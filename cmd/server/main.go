package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ludendorff/internal/audit"
	auditmetrics "ludendorff/internal/audit/metrics"
	auditmem "ludendorff/internal/audit/store/memory"
	auditpg "ludendorff/internal/audit/store/postgres"
	"ludendorff/internal/changefeed"
	feedkafka "ludendorff/internal/changefeed/kafka"
	feedmem "ludendorff/internal/changefeed/memory"
	feedredis "ludendorff/internal/changefeed/redis"
	"ludendorff/internal/docstore"
	docmem "ludendorff/internal/docstore/memory"
	docpg "ludendorff/internal/docstore/postgres"
	"ludendorff/internal/identity/local"
	"ludendorff/internal/mail"
	mailmem "ludendorff/internal/mail/memory"
	mailsmtp "ludendorff/internal/mail/smtp"
	"ludendorff/internal/platform/config"
	"ludendorff/internal/platform/httpserver"
	"ludendorff/internal/platform/logger"
	"ludendorff/internal/platform/postgres"
	platformredis "ludendorff/internal/platform/redis"
	"ludendorff/internal/search"
	searchclient "ludendorff/internal/search/client"
	searchmem "ludendorff/internal/search/memory"
	"ludendorff/internal/searchsync"
	httptransport "ludendorff/internal/transport/http"
	"ludendorff/internal/trigger"
	"ludendorff/internal/useradmin"
)

// main constructs every collaborator once, wires the audit pipeline, and
// supervises the HTTP server, the change dispatcher, and (with Postgres)
// the outbox relay under one errgroup.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pub, consumer, closeFeed, err := buildFeed(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFeed()

	dispatcher := trigger.New(consumer, log)

	patterns := make([]string, 0, len(audit.Watched()))
	for _, desc := range audit.Watched() {
		patterns = append(patterns, desc.Pattern)
	}

	var (
		records docstore.Store
		logs    audit.LogStore
		relay   *docpg.Relay
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		pgDocs := docpg.New(db, patterns...)
		if err := pgDocs.EnsureSchema(ctx); err != nil {
			return err
		}
		pgLogs := auditpg.New(db)
		if err := pgLogs.EnsureSchema(ctx); err != nil {
			return err
		}
		records = pgDocs
		logs = pgLogs
		relay = docpg.NewRelay(db, pub, log)
	} else {
		log.Warn("no POSTGRES_DSN configured, using in-memory stores")
		records = docmem.New(pub, patterns...)
		logs = auditmem.NewInMemoryStore()
	}

	metrics := auditmetrics.New()
	for _, desc := range audit.Watched() {
		dispatcher.Register(desc.Pattern, audit.New(desc, logs, records, log, audit.WithMetrics(metrics)))
	}

	provider := local.New(cfg.JWTSigningKey, time.Hour)

	var sender mail.Sender
	if cfg.SMTP.Addr != "" {
		sender = mailsmtp.New(cfg.SMTP.Addr, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		log.Warn("no SMTP_ADDR configured, account mail will not leave the process")
		sender = mailmem.New()
	}

	var index search.Index
	if cfg.Search.BaseURL != "" {
		index = searchclient.New(cfg.Search.BaseURL, cfg.Search.AppID, cfg.Search.APIKey)
	} else {
		log.Warn("no SEARCH_BASE_URL configured, index updates will not leave the process")
		index = searchmem.New()
	}

	users := useradmin.New(records, provider, sender, cfg.SMTP.Source, log)
	sync := searchsync.New(index)

	handler := httptransport.NewHandler(users, sync, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting dispatcher", "feed", cfg.Feed)
		return dispatcher.Run(ctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(ctx)
		})
	}
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildFeed selects the change feed transport. The returned close function
// is safe to call once consumers have stopped.
func buildFeed(ctx context.Context, cfg config.Config, log *slog.Logger) (docstore.ChangePublisher, changefeed.Consumer, func(), error) {
	switch cfg.Feed {
	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			return nil, nil, nil, errors.New("CHANGE_FEED=redis requires REDIS_URL")
		}
		feed := feedredis.New(client.Client)
		return feed, feed, func() { _ = client.Close() }, nil

	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, nil, errors.New("CHANGE_FEED=kafka requires KAFKA_BROKERS")
		}
		if err := feedkafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 8); err != nil {
			return nil, nil, nil, err
		}
		pub, err := feedkafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, nil, err
		}
		consumer, err := feedkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, log)
		if err != nil {
			pub.Close()
			return nil, nil, nil, err
		}
		return pub, consumer, func() { consumer.Close(); pub.Close() }, nil

	default:
		feed := feedmem.New(256)
		return feed, feed, func() {}, nil
	}
}
