package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"relocation-quote/internal/logger"
	"relocation-quote/internal/services"
)

// limitPurpose попадает в ответ статуса, чтобы клиент понимал, что именно бережёт окно.
const limitPurpose = "external geocoding and routing quota"

// RateLimiter — контракт лимитера, реализуется *services.RateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, scope services.Scope, client string) (services.Decision, error)
	Usage(ctx context.Context, scope services.Scope, client string) (services.Decision, error)
	Enabled() bool
	Limit() int64
	Window() time.Duration
}

// RateLimitHandler ограничивает эндпоинты, которые ходят во внешние геосервисы,
// и отдаёт клиенту состояние его окон.
type RateLimitHandler struct {
	limiter RateLimiter
	log     *logger.Logger
	scopes  []services.Scope
}

// NewRateLimitHandler создает RateLimitHandler. limiter может быть nil.
func NewRateLimitHandler(limiter RateLimiter, log *logger.Logger) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter, log: log}
}

func (h *RateLimitHandler) enabled() bool {
	return h.limiter != nil && h.limiter.Enabled()
}

// Limit оборачивает хендлер окном scope. Вызывается при сборке маршрутов.
func (h *RateLimitHandler) Limit(scope services.Scope, next http.HandlerFunc) http.HandlerFunc {
	h.scopes = append(h.scopes, scope)

	return func(w http.ResponseWriter, r *http.Request) {
		if !h.enabled() {
			next(w, r)
			return
		}

		client := services.ExtractClientIP(r)
		decision, err := h.limiter.Allow(r.Context(), scope, client)
		if err != nil {
			// Ошибка счётчика не блокирует запрос.
			h.log.WithError(err).WithFields(map[string]interface{}{
				"scope":  scope,
				"client": client,
			}).Warn("Rate limiter unavailable, request passed without limiting")
			next(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Scope", string(scope))
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(h.limiter.Limit(), 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		}

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.log.WithFields(map[string]interface{}{
				"scope":  scope,
				"client": client,
				"used":   decision.Used,
			}).Info("Rate limit exceeded")
			writeErrorResponse(w, http.StatusTooManyRequests,
				fmt.Sprintf("Rate limit for %s exceeded: %d requests per %ds, retry in %ds",
					scope, h.limiter.Limit(), int(h.limiter.Window().Seconds()), retryAfter))
			return
		}

		next(w, r)
	}
}

// ScopeStatus — состояние одного окна клиента.
type ScopeStatus struct {
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	ResetAt   string `json:"reset_at,omitempty"`
}

// RateLimitStatus — ответ GET /api/rate-limit/status.
type RateLimitStatus struct {
	Enabled       bool                           `json:"enabled"`
	Protects      string                         `json:"protects"`
	Client        string                         `json:"client,omitempty"`
	Limit         int64                          `json:"limit,omitempty"`
	WindowSeconds int                            `json:"window_seconds,omitempty"`
	Scopes        map[services.Scope]ScopeStatus `json:"scopes,omitempty"`
}

// Status возвращает окна клиента по всем ограниченным эндпоинтам или по одному (?scope=).
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	scopes := h.scopes
	if requested := r.URL.Query().Get("scope"); requested != "" {
		if !h.limits(services.Scope(requested)) {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Unknown rate limit scope %q", requested))
			return
		}
		scopes = []services.Scope{services.Scope(requested)}
	}

	if !h.enabled() {
		writeJSONResponse(w, http.StatusOK, RateLimitStatus{Enabled: false, Protects: limitPurpose})
		return
	}

	client := services.ExtractClientIP(r)
	resp := RateLimitStatus{
		Enabled:       true,
		Protects:      limitPurpose,
		Client:        client,
		Limit:         h.limiter.Limit(),
		WindowSeconds: int(h.limiter.Window().Seconds()),
		Scopes:        make(map[services.Scope]ScopeStatus, len(scopes)),
	}

	for _, scope := range scopes {
		decision, err := h.limiter.Usage(r.Context(), scope, client)
		if err != nil {
			h.log.WithError(err).WithField("scope", scope).Error("Failed to fetch rate limit usage")
			writeErrorResponse(w, http.StatusServiceUnavailable, "Rate limit counters unavailable")
			return
		}

		status := ScopeStatus{Used: decision.Used, Remaining: decision.Remaining}
		if !decision.ResetAt.IsZero() {
			status.ResetAt = decision.ResetAt.UTC().Format(time.RFC3339)
		}
		resp.Scopes[scope] = status
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *RateLimitHandler) limits(scope services.Scope) bool {
	for _, s := range h.scopes {
		if s == scope {
			return true
		}
	}
	return false
}
