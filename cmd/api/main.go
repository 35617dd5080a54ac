package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/config"
	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/database"
	"github.com/xavierca1/leadmail/internal/infra/http/handlers"
	"github.com/xavierca1/leadmail/internal/infra/mail"
	"github.com/xavierca1/leadmail/internal/infra/memory"
	"github.com/xavierca1/leadmail/internal/infra/queue"
	"github.com/xavierca1/leadmail/internal/logger"
	"github.com/xavierca1/leadmail/internal/usecase"
)

const version = "1.0.0"

type stores struct {
	leads        entity.LeadRepositoryInterface
	templates    entity.TemplateRepositoryInterface
	relay        entity.RelayConfigRepository
	interactions entity.InteractionRepository
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Release:     "leadmail@" + version,
		}); err != nil {
			log.WithError(err).Warn("sentry disabled")
		} else {
			log.AddHook(logger.NewSentryHook(sentry.CurrentHub()))
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Stores
	var db *sql.DB
	var st stores
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).WithField("database_url", cfg.MaskedDatabaseURL()).Fatal("database unreachable")
		}
		defer db.Close()

		if err := database.Migrate(ctx, db, log); err != nil {
			log.WithError(err).Fatal("migrations failed")
		}

		st = stores{
			leads:        database.NewLeadRepository(db),
			templates:    database.NewTemplateRepository(db),
			relay:        database.NewRelayConfigRepository(db, log),
			interactions: database.NewInteractionRepository(db),
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		st = stores{
			leads:        memory.NewLeadRepo(),
			templates:    memory.NewTemplateRepo(),
			relay:        memory.NewRelayConfigRepo(),
			interactions: memory.NewInteractionRepo(),
		}
	}

	// 2. Event publisher
	var (
		events   usecase.InteractionPublisher
		amqpConn *amqp.Connection
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, interaction events disabled")
		} else {
			defer rabbitMQ.Close()
			amqpConn = rabbitMQ.Conn
			events = queue.NewProducer(rabbitMQ.Ch)
		}
	}

	// 3. Transport and use cases
	transport := mail.NewRelayTransport(st.relay, mail.Options{
		ConnectTimeout:  cfg.SMTPConnectTimeout,
		GreetingTimeout: cfg.SMTPGreetingTimeout,
		SocketTimeout:   cfg.SMTPSocketTimeout,
		DefaultFromName: cfg.DefaultFromName,
	}, log.WithField("component", "mail"))

	sendUC := usecase.NewSendEmailUseCase(transport, st.leads, st.interactions, events, log.WithField("component", "send"))
	bulkUC := usecase.NewBulkDispatchUseCase(st.templates, st.leads, sendUC, cfg.DispatchConcurrency, log.WithField("component", "dispatch"))
	leadUC := usecase.NewLeadUseCase(st.leads, st.templates, st.interactions, log.WithField("component", "leads"))
	relayUC := usecase.NewRelayConfigUseCase(st.relay, cfg.DefaultFromName, log.WithField("component", "relay_config"))

	// 4. HTTP
	router := handlers.Router{
		Health:         handlers.NewHealthHandler(db, amqpConn, st.relay, version),
		Leads:          handlers.NewLeadHandler(leadUC, sendUC, handlers.NewRateLimiter(cfg.LeadCaptureLimit, cfg.LeadCaptureWindow), log),
		Templates:      handlers.NewTemplateHandler(leadUC, log),
		SendEmail:      handlers.NewSendEmailHandler(sendUC, log),
		Dispatch:       handlers.NewDispatchHandler(bulkUC, log),
		RelayConfig:    handlers.NewRelayConfigHandler(relayUC, log),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Log:            log,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":        cfg.HTTPAddr,
			"env":         cfg.AppEnv,
			"concurrency": cfg.DispatchConcurrency,
		}).Info("leadmail listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
