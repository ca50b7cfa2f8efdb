package distance

import (
	"context"
	"errors"
	"fmt"

	"relocation-quote/internal/apperror"
	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"
)

// RouteCalculator считает длину маршрута с повторами.
type RouteCalculator struct {
	router Router
	policy RetryPolicy
	log    *logger.Logger
}

// NewRouteCalculator создает калькулятор маршрутов.
func NewRouteCalculator(router Router, log *logger.Logger, cfg *config.RoutingConfig) *RouteCalculator {
	c := &RouteCalculator{
		router: router,
		policy: PolicyFromConfig(cfg.Retry),
		log:    log,
	}
	c.policy.OnRetry = func(attempt int, err error) {
		c.log.WithError(err).WithField("attempt", attempt).Warn("Route attempt failed, retrying")
	}
	return c
}

// Distance возвращает маршрут через points (минимум две точки).
func (c *RouteCalculator) Distance(ctx context.Context, points []Coordinate) (Route, error) {
	if len(points) < 2 {
		return Route{}, apperror.Validation("route needs at least two points", nil)
	}

	route, err := Retry(ctx, c.policy, func(ctx context.Context) (Route, error) {
		return c.router.Route(ctx, points)
	})
	if err != nil {
		c.log.WithError(err).WithField("points", len(points)).Error("Failed to build route")
		attempts := Attempts(err)
		if attempts == 0 {
			return Route{}, err
		}
		msg := fmt.Sprintf("route unavailable after %d attempts", attempts)
		if errors.Is(err, ErrTimeout) {
			msg = fmt.Sprintf("route timed out after %d attempts", attempts)
		}
		return Route{}, apperror.Unavailable(msg, fmt.Errorf("%w: %w", ErrRouteUnavailable, err))
	}

	return route, nil
}
