package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const defaultOSRMURL = "https://router.project-osrm.org"

// OSRMRouter — автомобильные маршруты Open Source Routing Machine.
type OSRMRouter struct {
	baseURL string
	client  *http.Client
}

// NewOSRMRouter создает роутер. Пустой baseURL означает публичный демо-сервер.
func NewOSRMRouter(baseURL string, client *http.Client) *OSRMRouter {
	if baseURL == "" {
		baseURL = defaultOSRMURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OSRMRouter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"` // метры
		Duration float64 `json:"duration"` // секунды
	} `json:"routes"`
}

// Route реализует Router.
func (r *OSRMRouter) Route(ctx context.Context, points []Coordinate) (Route, error) {
	// OSRM ожидает lon,lat
	coords := make([]string, 0, len(points))
	for _, p := range points {
		coords = append(coords, strconv.FormatFloat(p.Lon, 'f', 6, 64)+","+strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	reqURL := r.baseURL + "/route/v1/driving/" + strings.Join(coords, ";") + "?overview=false"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Route{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("failed to call osrm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Route{}, fmt.Errorf("failed to read osrm response: %w", err)
	}

	var data osrmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Route{}, fmt.Errorf("osrm returned status %d", resp.StatusCode)
		}
		return Route{}, fmt.Errorf("failed to decode osrm response: %w", err)
	}

	if data.Code != "Ok" {
		return Route{}, fmt.Errorf("%w: osrm code %q: %s", ErrRouteUnavailable, data.Code, data.Message)
	}
	if len(data.Routes) == 0 {
		return Route{}, fmt.Errorf("%w: osrm returned no routes", ErrRouteUnavailable)
	}

	return Route{
		DistanceMeters:  data.Routes[0].Distance,
		DurationSeconds: data.Routes[0].Duration,
	}, nil
}
