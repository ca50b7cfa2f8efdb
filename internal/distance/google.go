package distance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"googlemaps.github.io/maps"
)

// GoogleMaps реализует Geocoder и Router поверх Google Maps Platform.
type GoogleMaps struct {
	client *maps.Client
}

// NewGoogleMaps создает клиента. baseURL нужен только для тестов.
func NewGoogleMaps(apiKey, baseURL string, httpClient *http.Client) (*GoogleMaps, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMaps{client: client}, nil
}

// Geocode реализует Geocoder.
func (g *GoogleMaps) Geocode(ctx context.Context, address string) (Coordinate, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return Coordinate{}, fmt.Errorf("maps geocode error: %w", err)
	}
	if len(results) == 0 {
		return Coordinate{}, fmt.Errorf("%w: google returned no results for %q", ErrAddressNotFound, address)
	}

	loc := results[0].Geometry.Location
	return Coordinate{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Route реализует Router: первая точка — старт, последняя — финиш, остальные — промежуточные.
func (g *GoogleMaps) Route(ctx context.Context, points []Coordinate) (Route, error) {
	if len(points) < 2 {
		return Route{}, fmt.Errorf("%w: need at least two points", ErrRouteUnavailable)
	}

	req := &maps.DirectionsRequest{
		Origin:      latLng(points[0]),
		Destination: latLng(points[len(points)-1]),
		Mode:        maps.TravelModeDriving,
	}
	for _, p := range points[1 : len(points)-1] {
		req.Waypoints = append(req.Waypoints, latLng(p))
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("%w: no route found", ErrRouteUnavailable)
	}

	var out Route
	for _, leg := range routes[0].Legs {
		out.DistanceMeters += float64(leg.Distance.Meters)
		out.DurationSeconds += leg.Duration.Seconds()
	}
	return out, nil
}

func latLng(c Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 6, 64)
}
