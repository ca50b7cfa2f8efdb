package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/redis"
)

// Scope — группа эндпоинтов со своим счётчиком.
type Scope string

const (
	ScopeQuotes   Scope = "quotes"
	ScopeDistance Scope = "distance"
)

// Decision — состояние окна клиента после обращения к лимитеру.
// ResetAt нулевой, если окно ещё не открыто.
type Decision struct {
	Allowed   bool
	Used      int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter возвращает целое число секунд до сброса окна, минимум 1.
func (d Decision) RetryAfter(now time.Time) int {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 1
	}
	return int(math.Ceil(wait.Seconds()))
}

// RateLimiter ограничивает число запросов клиента (IP) в фиксированном окне,
// отдельно для каждого Scope. Защищает квоты внешних геокодеров и маршрутизаторов.
type RateLimiter struct {
	counter windowCounter
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Counter(ctx context.Context, key string) (int64, time.Duration, error)
}

// NewRateLimiter создаёт rate limiter. Без Redis или при выключенной настройке лимит не применяется.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		if log != nil && cfg != nil && cfg.Enabled {
			log.Warn("Rate limit requested but Redis or limits are not configured, limiting disabled")
		}
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		counter: redisClient,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

// Allow засчитывает запрос клиента в окне scope.
func (r *RateLimiter) Allow(ctx context.Context, scope Scope, client string) (Decision, error) {
	if !r.enabled {
		return Decision{Allowed: true, Remaining: r.limit}, nil
	}

	count, ttl, err := r.counter.IncrWindow(ctx, r.makeKey(scope, client), r.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limiter incr for %s failed: %w", scope, err)
	}
	return r.decide(count, ttl), nil
}

// Usage возвращает состояние окна scope, не засчитывая запрос.
func (r *RateLimiter) Usage(ctx context.Context, scope Scope, client string) (Decision, error) {
	if !r.enabled {
		return Decision{Allowed: true, Remaining: r.limit}, nil
	}

	count, ttl, err := r.counter.Counter(ctx, r.makeKey(scope, client))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return Decision{Allowed: true, Remaining: r.limit}, nil
		}
		return Decision{}, fmt.Errorf("rate limiter usage for %s failed: %w", scope, err)
	}
	return r.decide(count, ttl), nil
}

func (r *RateLimiter) decide(count int64, ttl time.Duration) Decision {
	d := Decision{Allowed: count <= r.limit, Used: count, Remaining: r.limit - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if ttl > 0 {
		d.ResetAt = time.Now().Add(ttl)
	}
	return d
}

// Ключ: <prefix>:<scope>:<ip>, двоеточия IPv6 заменяются.
func (r *RateLimiter) makeKey(scope Scope, client string) string {
	return redis.GenerateKey(r.prefix, string(scope)+":"+strings.ReplaceAll(client, ":", "_"))
}

// Limit возвращает число запросов в окне для одного scope.
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Window возвращает длину окна.
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Enabled сообщает, включён ли rate limiting.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// ExtractClientIP получает IP из заголовков/RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
