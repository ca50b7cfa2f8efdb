package distance

import (
	"context"
	"fmt"

	"relocation-quote/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Resolver переводит адрес в координаты.
type Resolver interface {
	Resolve(ctx context.Context, address string) (Coordinate, error)
}

// Distancer считает маршрут через точки.
type Distancer interface {
	Distance(ctx context.Context, points []Coordinate) (Route, error)
}

// Aggregator считает круговой пробег база → откуда → куда → база.
type Aggregator struct {
	resolver Resolver
	routes   Distancer
	depot    Coordinate
	log      *logger.Logger
}

// NewAggregator создает агрегатор с базой по умолчанию depot.
func NewAggregator(resolver Resolver, routes Distancer, depot Coordinate, log *logger.Logger) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		routes:   routes,
		depot:    depot,
		log:      log,
	}
}

// Depot возвращает базу по умолчанию.
func (a *Aggregator) Depot() Coordinate {
	return a.depot
}

// ResolveDistance геокодирует оба адреса параллельно, затем параллельно считает три плеча.
// Ошибка любого шага завершает расчёт целиком: частичный результат не возвращается.
func (a *Aggregator) ResolveDistance(ctx context.Context, from, to string, depot *Coordinate) (*Result, error) {
	base := a.depot
	if depot != nil {
		base = *depot
	}

	var origin, destination Coordinate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := a.resolver.Resolve(gctx, from)
		if err != nil {
			return fmt.Errorf("origin: %w", err)
		}
		origin = c
		return nil
	})
	g.Go(func() error {
		c, err := a.resolver.Resolve(gctx, to)
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		destination = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	legs := [legCount][]Coordinate{
		LegDepotToOrigin:       {base, origin},
		LegOriginToDestination: {origin, destination},
		LegDestinationToDepot:  {destination, base},
	}

	var routes [legCount]Route
	g, gctx = errgroup.WithContext(ctx)
	for i := range legs {
		g.Go(func() error {
			route, err := a.routes.Distance(gctx, legs[i])
			if err != nil {
				return fmt.Errorf("leg %s: %w", legNames[i], err)
			}
			routes[i] = route
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Origin:      origin,
		Destination: destination,
		Depot:       base,
	}
	var km, minutes float64
	for i, route := range routes {
		result.LegKm[i] = round1(route.DistanceMeters / 1000)
		result.LegMinutes[i] = round1(route.DurationSeconds / 60)
		km += result.LegKm[i]
		minutes += result.LegMinutes[i]
	}
	result.TotalKm = round1(km)
	result.TotalMinutes = round1(minutes)

	a.log.WithFields(map[string]interface{}{
		"total_km":      result.TotalKm,
		"total_minutes": result.TotalMinutes,
	}).Info("Distance resolved")

	return result, nil
}
