package distance

import (
	"fmt"
	"net/http"
	"strings"

	"relocation-quote/internal/config"
)

// NewGeocoder выбирает геокодер по cfg.Provider: nominatim (по умолчанию), yandex или google.
func NewGeocoder(cfg *config.GeocodingConfig, client *http.Client) (Geocoder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "nominatim":
		return NewNominatimGeocoder(cfg.BaseURL, cfg.UserAgent, client), nil
	case "yandex":
		if cfg.YandexAPIKey == "" {
			return nil, fmt.Errorf("yandex geocoder requires an api key")
		}
		return NewYandexGeocoder(cfg.YandexAPIKey, cfg.YandexBaseURL, client), nil
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("google geocoder requires an api key")
		}
		g, err := NewGoogleMaps(cfg.GoogleAPIKey, "", client)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Provider)
	}
}

// NewRouter выбирает сервис маршрутов по cfg.Provider: osrm (по умолчанию) или google.
func NewRouter(cfg *config.RoutingConfig, client *http.Client) (Router, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "osrm":
		return NewOSRMRouter(cfg.BaseURL, client), nil
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("google router requires an api key")
		}
		g, err := NewGoogleMaps(cfg.GoogleAPIKey, "", client)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}
}
