package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadmail/internal/entity"
)

const (
	depHealthy       = "healthy"
	depNotConfigured = "not configured"
	depConfigured    = "configured"
)

type HealthHandler struct {
	DB        *sql.DB
	RabbitMQ  *amqp091.Connection
	Relay     entity.RelayConfigRepository
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *sql.DB, rabbitMQ *amqp091.Connection, relay entity.RelayConfigRepository, version string) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		RabbitMQ:  rabbitMQ,
		Relay:     relay,
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"database": depNotConfigured,
		"rabbitmq": depNotConfigured,
		"relay":    depNotConfigured,
	}

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["database"] = depHealthy
		}
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = depHealthy
		}
	}

	// An incomplete relay config is reported but does not degrade the service.
	if h.Relay != nil {
		cfg, err := h.Relay.Get(ctx)
		switch {
		case errors.Is(err, entity.ErrNotFound):
		case err != nil:
			deps["relay"] = fmt.Sprintf("unhealthy: %v", err)
		case len(cfg.Missing()) == 0:
			deps["relay"] = depConfigured
		default:
			deps["relay"] = "incomplete"
		}
	}

	status := depHealthy
	for _, v := range deps {
		if v != depHealthy && v != depConfigured && v != depNotConfigured && v != "incomplete" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
