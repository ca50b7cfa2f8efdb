// Package settings читает активную частичную конфигурацию тарифов из PostgreSQL.
// Запись конфигурации — забота админки, здесь только чтение.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/pricing"
	"relocation-quote/internal/redis"
)

const (
	activeSettingsQuery = `SELECT payload FROM pricing_settings WHERE active = true ORDER BY updated_at DESC LIMIT 1`
	defaultCacheTTL     = 5 * time.Minute
)

var (
	activeKey = redis.GenerateKey(redis.KeyPrefixSettings, "active")
	// Все записи настроек живут под этим префиксом.
	settingsNamespace = redis.KeyPrefixSettings + ":"
)

// Querier — часть *sql.DB, нужная хранилищу.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Cache — JSON-кеш с TTL, реализуется *redis.Client.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// cachedSettings хранит и отсутствие активной записи, чтобы не ходить в базу на каждый расчёт.
type cachedSettings struct {
	Found   bool            `json:"found"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Store отдаёт активные настройки тарифов.
type Store struct {
	db    Querier
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewStore создает хранилище. cache может быть nil.
func NewStore(db Querier, cache Cache, log *logger.Logger, cfg *config.SettingsConfig) *Store {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Store{db: db, cache: cache, ttl: ttl, log: log}
}

// Active возвращает активную частичную конфигурацию или nil, если её нет.
func (s *Store) Active(ctx context.Context) (*pricing.PartialConfig, error) {
	if s.cache != nil {
		var cached cachedSettings
		if err := s.cache.Get(ctx, activeKey, &cached); err == nil {
			return decode(cached)
		}
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, activeSettingsQuery).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		payload = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load pricing settings: %w", err)
	}

	entry := cachedSettings{Found: payload != nil, Payload: payload}
	partial, err := decode(entry)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, activeKey, entry, s.ttl); err != nil {
			s.log.WithError(err).Warn("Failed to cache pricing settings")
		}
	}
	return partial, nil
}

// Invalidate сбрасывает все закешированные записи настроек,
// следующий Active прочитает базу.
func (s *Store) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPrefix(ctx, settingsNamespace); err != nil {
		return fmt.Errorf("failed to invalidate pricing settings: %w", err)
	}
	s.log.Info("Pricing settings cache invalidated")
	return nil
}

func decode(entry cachedSettings) (*pricing.PartialConfig, error) {
	if !entry.Found {
		return nil, nil
	}
	var partial pricing.PartialConfig
	if err := json.Unmarshal(entry.Payload, &partial); err != nil {
		return nil, fmt.Errorf("invalid pricing settings payload: %w", err)
	}
	return &partial, nil
}
