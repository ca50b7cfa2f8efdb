// Package distance считает пробег машины по кругу база → откуда → куда → база.
package distance

import (
	"context"
	"errors"
	"math"
)

// Терминальные ошибки после исчерпания повторов. Проверяются через errors.Is.
var (
	ErrAddressNotFound  = errors.New("address not found")
	ErrRouteUnavailable = errors.New("route unavailable")
	ErrTimeout          = errors.New("external call timed out")
)

// Coordinate — точка WGS84.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Route — ответ сервиса маршрутов для одной последовательности точек.
type Route struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Leg — индексы плеч кругового маршрута.
const (
	LegDepotToOrigin = iota
	LegOriginToDestination
	LegDestinationToDepot
	legCount
)

var legNames = [legCount]string{"depot->origin", "origin->destination", "destination->depot"}

// Result — пробег кругового маршрута, км и минуты округлены до одного знака.
type Result struct {
	TotalKm      float64           `json:"total_km"`
	LegKm        [legCount]float64 `json:"leg_km"`
	TotalMinutes float64           `json:"total_minutes"`
	LegMinutes   [legCount]float64 `json:"leg_minutes"`
	Origin       Coordinate        `json:"origin"`
	Destination  Coordinate        `json:"destination"`
	Depot        Coordinate        `json:"depot"`
}

// Geocoder переводит адрес в координаты. Пустой ответ — ошибка, оборачивающая ErrAddressNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinate, error)
}

// Router строит автомобильный маршрут через упорядоченные точки.
// Неуспешный статус или пустой список маршрутов — ошибка, оборачивающая ErrRouteUnavailable.
type Router interface {
	Route(ctx context.Context, points []Coordinate) (Route, error)
}

// GeocoderFunc адаптирует функцию к Geocoder.
type GeocoderFunc func(ctx context.Context, address string) (Coordinate, error)

func (f GeocoderFunc) Geocode(ctx context.Context, address string) (Coordinate, error) {
	return f(ctx, address)
}

// RouterFunc адаптирует функцию к Router.
type RouterFunc func(ctx context.Context, points []Coordinate) (Route, error)

func (f RouterFunc) Route(ctx context.Context, points []Coordinate) (Route, error) {
	return f(ctx, points)
}

func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
