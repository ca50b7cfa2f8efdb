package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Geocoding GeocodingConfig `json:"geocoding"`
	Routing   RoutingConfig   `json:"routing"`
	Depot     DepotConfig     `json:"depot"`
	Settings  SettingsConfig  `json:"settings"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Quotes   string `json:"quotes"`
	Settings string `json:"settings"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// RetryConfig описывает расписание повторов для внешнего вызова.
type RetryConfig struct {
	MaxAttempts    int `json:"max_attempts"`
	PacingMillis   int `json:"pacing_millis"`   // пауза перед каждой попыткой
	BackoffMillis  int `json:"backoff_millis"`  // шаг нарастающей паузы после неудачи
	TimeoutSeconds int `json:"timeout_seconds"` // таймаут одной попытки
}

// Pacing возвращает паузу перед попыткой.
func (r RetryConfig) Pacing() time.Duration {
	return time.Duration(r.PacingMillis) * time.Millisecond
}

// Backoff возвращает шаг паузы после неудачной попытки.
func (r RetryConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffMillis) * time.Millisecond
}

// Timeout возвращает таймаут одной попытки.
func (r RetryConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// GeocodingConfig описывает настройки геокодера
type GeocodingConfig struct {
	Provider      string      `json:"provider"`        // nominatim | yandex | google
	BaseURL       string      `json:"base_url"`        // https://nominatim.openstreetmap.org
	UserAgent     string      `json:"user_agent"`      // Nominatim требует User-Agent
	YandexAPIKey  string      `json:"yandex_api_key"`  // Ключ для Yandex геокодера
	YandexBaseURL string      `json:"yandex_base_url"` // https://geocode-maps.yandex.ru/1.x
	GoogleAPIKey  string      `json:"google_api_key"`
	CacheTTLHours int         `json:"cache_ttl_hours"`
	Retry         RetryConfig `json:"retry"`
}

// RoutingConfig описывает настройки сервиса маршрутов
type RoutingConfig struct {
	Provider     string      `json:"provider"` // osrm | google
	BaseURL      string      `json:"base_url"` // https://router.project-osrm.org
	GoogleAPIKey string      `json:"google_api_key"`
	Retry        RetryConfig `json:"retry"`
}

// DepotConfig хранит координаты базы компании
type DepotConfig struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// SettingsConfig описывает чтение активных тарифов из БД
type SettingsConfig struct {
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
}

// RateLimitConfig описывает ограничение запросов к эндпоинтам с геокодированием
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "quote_user"),
			Password: getEnv("DB_PASSWORD", "quote_pass"),
			DBName:   getEnv("DB_NAME", "relocation"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "relocation-quote"),
			Topics: Topics{
				Quotes:   getEnv("KAFKA_TOPIC_QUOTES", "quotes"),
				Settings: getEnv("KAFKA_TOPIC_SETTINGS", "pricing-settings"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Geocoding: GeocodingConfig{
			Provider:      getEnv("GEOCODER_PROVIDER", "nominatim"),
			BaseURL:       getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:     getEnv("GEOCODER_USER_AGENT", "relocation-quote/1.0"),
			YandexAPIKey:  getEnv("YANDEX_GEOCODER_API_KEY", ""),
			YandexBaseURL: getEnv("YANDEX_GEOCODER_BASE_URL", "https://geocode-maps.yandex.ru/1.x"),
			GoogleAPIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			CacheTTLHours: getEnvAsInt("GEOCODER_CACHE_TTL_HOURS", 24),
			Retry: RetryConfig{
				MaxAttempts:    getEnvAsInt("GEOCODER_MAX_ATTEMPTS", 4),
				PacingMillis:   getEnvAsInt("GEOCODER_PACING_MS", 1000),
				BackoffMillis:  getEnvAsInt("GEOCODER_BACKOFF_MS", 1000),
				TimeoutSeconds: getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 8),
			},
		},
		Routing: RoutingConfig{
			Provider:     getEnv("ROUTER_PROVIDER", "osrm"),
			BaseURL:      getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
			GoogleAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			Retry: RetryConfig{
				MaxAttempts:    getEnvAsInt("ROUTER_MAX_ATTEMPTS", 3),
				PacingMillis:   getEnvAsInt("ROUTER_PACING_MS", 0),
				BackoffMillis:  getEnvAsInt("ROUTER_BACKOFF_MS", 500),
				TimeoutSeconds: getEnvAsInt("ROUTER_TIMEOUT_SECONDS", 8),
			},
		},
		Depot: DepotConfig{
			Address: getEnv("DEPOT_ADDRESS", "Brynsveien 13, 0667 Oslo"),
			Lat:     getEnvAsFloat("DEPOT_LAT", 59.9127),
			Lon:     getEnvAsFloat("DEPOT_LON", 10.8120),
		},
		Settings: SettingsConfig{
			CacheTTLMinutes: getEnvAsInt("SETTINGS_CACHE_TTL_MINUTES", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat получает значение переменной окружения как float64 с значением по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
