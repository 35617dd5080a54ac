package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/usecase"
)

type LeadHandler struct {
	leads       *usecase.LeadUseCase
	sender      *usecase.SendEmailUseCase
	rateLimiter *RateLimiter
	log         logrus.FieldLogger
}

func NewLeadHandler(leads *usecase.LeadUseCase, sender *usecase.SendEmailUseCase, limiter *RateLimiter, log logrus.FieldLogger) *LeadHandler {
	return &LeadHandler{
		leads:       leads,
		sender:      sender,
		rateLimiter: limiter,
		log:         log,
	}
}

// Capture serves the public lead form, rate limited per client IP.
func (h *LeadHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error: "too many requests, please try again later",
			Code:  "RATE_LIMITED",
		})
		return
	}

	var input usecase.CaptureLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	lead, err := h.leads.Capture(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	if leads == nil {
		leads = []entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	lead, err := h.leads.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SendLeadEmailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendEmail records the attempt whatever the relay says; the returned
// interaction carries the outcome.
func (h *LeadHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendLeadEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.sender.SendToLeadID(r.Context(), chi.URLParam(r, "id"), req.Subject, req.Body)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *LeadHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	history, err := h.leads.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	if history == nil {
		history = []entity.Interaction{}
	}
	writeJSON(w, http.StatusOK, history)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
