package distance

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"relocation-quote/internal/apperror"
	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/redis"
)

const defaultGeocodeCacheTTL = 24 * time.Hour

// Cache — JSON-кеш с TTL, реализуется *redis.Client.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// AddressResolver переводит адрес в координаты с повторами и кешем удачных ответов.
// Запасные координаты никогда не подставляются.
type AddressResolver struct {
	geocoder Geocoder
	cache    Cache
	cacheTTL time.Duration
	policy   RetryPolicy
	log      *logger.Logger
}

// NewAddressResolver создает резолвер. cache может быть nil.
func NewAddressResolver(geocoder Geocoder, cache Cache, log *logger.Logger, cfg *config.GeocodingConfig) *AddressResolver {
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = defaultGeocodeCacheTTL
	}

	r := &AddressResolver{
		geocoder: geocoder,
		cache:    cache,
		cacheTTL: ttl,
		policy:   PolicyFromConfig(cfg.Retry),
		log:      log,
	}
	r.policy.OnRetry = func(attempt int, err error) {
		r.log.WithError(err).WithField("attempt", attempt).Warn("Geocode attempt failed, retrying")
	}
	return r
}

// Resolve возвращает координаты адреса.
func (r *AddressResolver) Resolve(ctx context.Context, address string) (Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Coordinate{}, apperror.Validation("address is empty", nil)
	}

	key := redis.GenerateKey(redis.KeyPrefixGeocode, hashKey(address))
	if r.cache != nil {
		var cached Coordinate
		if err := r.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	coords, err := Retry(ctx, r.policy, func(ctx context.Context) (Coordinate, error) {
		return r.geocoder.Geocode(ctx, address)
	})
	if err != nil {
		r.log.WithError(err).WithField("address", address).Error("Failed to geocode address")
		return Coordinate{}, classifyGeocodeError(address, err)
	}

	// Пишем в кеш (best effort)
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, coords, r.cacheTTL); err != nil {
			r.log.WithError(err).WithField("address", address).Warn("Failed to cache geocode result")
		}
	}

	return coords, nil
}

func classifyGeocodeError(address string, err error) error {
	attempts := Attempts(err)
	switch {
	case attempts == 0:
		return err
	case errors.Is(err, ErrAddressNotFound):
		return apperror.NotFound(fmt.Sprintf("address %q not found after %d attempts", address, attempts), err)
	case errors.Is(err, ErrTimeout):
		return apperror.Unavailable(fmt.Sprintf("geocoding %q timed out after %d attempts", address, attempts), err)
	default:
		return apperror.Unavailable(fmt.Sprintf("geocoding %q failed after %d attempts", address, attempts), err)
	}
}

// hashKey делает короткий ключ кеша для адреса; регистр не учитывается.
func hashKey(address string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(address)))
	return fmt.Sprintf("%x", h.Sum64())
}
