package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultYandexURL = "https://geocode-maps.yandex.ru/1.x"

// YandexGeocoder — геокодер Яндекса, требует API-ключ.
type YandexGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewYandexGeocoder создает геокодер.
func NewYandexGeocoder(apiKey, baseURL string, client *http.Client) *YandexGeocoder {
	if baseURL == "" {
		baseURL = defaultYandexURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &YandexGeocoder{apiKey: apiKey, baseURL: baseURL, client: client}
}

// Geocode вызывает API Яндекс Геокодера.
func (g *YandexGeocoder) Geocode(ctx context.Context, address string) (Coordinate, error) {
	params := url.Values{}
	params.Set("apikey", g.apiKey)
	params.Set("format", "json")
	params.Set("results", "1")
	params.Set("geocode", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("failed to call yandex geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Coordinate{}, fmt.Errorf("yandex geocode returned status %d: %s", resp.StatusCode, string(body))
	}

	var data yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Coordinate{}, fmt.Errorf("failed to decode yandex geocode response: %w", err)
	}

	pos := data.firstPos()
	if pos == "" {
		return Coordinate{}, fmt.Errorf("%w: yandex geocode returned empty position", ErrAddressNotFound)
	}

	// pos формат: "10.7522 59.9139" (lon lat)
	var c Coordinate
	if _, err := fmt.Sscanf(pos, "%f %f", &c.Lon, &c.Lat); err != nil {
		return Coordinate{}, fmt.Errorf("failed to parse position: %w", err)
	}
	return c, nil
}

type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

func (r *yandexResponse) firstPos() string {
	if len(r.Response.GeoObjectCollection.FeatureMember) == 0 {
		return ""
	}
	return r.Response.GeoObjectCollection.FeatureMember[0].GeoObject.Point.Pos
}
