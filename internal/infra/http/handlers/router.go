package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/infra/http/middleware"
)

type Router struct {
	Health      *HealthHandler
	Leads       *LeadHandler
	Templates   *TemplateHandler
	SendEmail   *SendEmailHandler
	Dispatch    *DispatchHandler
	RelayConfig *RelayConfigHandler

	AllowedOrigins []string
	Log            logrus.FieldLogger
}

func (rt Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(rt.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/send-email", rt.SendEmail.Handle)
	r.Post("/automations/dispatch", rt.Dispatch.Handle)
	r.Get("/templates", rt.Templates.List)

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", rt.Leads.Capture)
		r.Get("/", rt.Leads.List)
		r.Patch("/{id}", rt.Leads.Update)
		r.Delete("/{id}", rt.Leads.Delete)
		r.Post("/{id}/emails", rt.Leads.SendEmail)
		r.Get("/{id}/interactions", rt.Leads.Interactions)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/relay-config", rt.RelayConfig.Get)
		r.Put("/relay-config", rt.RelayConfig.Put)
	})

	return r
}
