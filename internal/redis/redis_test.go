package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return &Client{client: rdb, log: log}, mr, context.Background()
}

func TestConnectSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}

	client, err := Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "0", DB: 0}
	if _, err := Connect(cfg, log); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil error on nil client close, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey(KeyPrefixGeocode, "abc")
	if key != "geocode:abc" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestSetGetDelete(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	type coordinate struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}

	val := coordinate{Lat: 59.91, Lon: 10.75}
	if err := client.Set(ctx, "geocode:1", val, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got coordinate
	if err := client.Get(ctx, "geocode:1", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != val {
		t.Fatalf("unexpected value: %+v", got)
	}
	if ttl := mr.TTL("geocode:1"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}
}

func TestGetMissingKey(t *testing.T) {
	client, _, ctx := newTestClient(t)
	var dest struct{}
	err := client.Get(ctx, "absent", &dest)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestGetCorruptedValue(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	_ = mr.Set("broken", "{")

	var dest map[string]interface{}
	err := client.Get(ctx, "broken", &dest)
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected unmarshal error, got %v", err)
	}
}

func TestSetUnmarshalableValue(t *testing.T) {
	client, _, ctx := newTestClient(t)
	if err := client.Set(ctx, "bad", make(chan int), time.Minute); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestDeleteByPrefix(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	_ = mr.Set("pricing_settings:active", "a")
	_ = mr.Set("pricing_settings:v2", "b")
	_ = mr.Set("geocode:3", "c")

	if err := client.DeleteByPrefix(ctx, KeyPrefixSettings); err != nil {
		t.Fatalf("delete by prefix failed: %v", err)
	}

	if mr.Exists("pricing_settings:active") || mr.Exists("pricing_settings:v2") {
		t.Fatalf("expected settings keys removed")
	}
	if !mr.Exists("geocode:3") {
		t.Fatalf("expected other key kept")
	}

	if err := client.DeleteByPrefix(ctx, "nothing"); err != nil {
		t.Fatalf("expected no error on empty prefix scan, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Fatalf("expected health error after server shutdown")
	}
}

func TestIncrWindow(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := client.IncrWindow(ctx, "ratelimit:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}

	mr.FastForward(time.Minute + time.Second)
	count, _, err := client.IncrWindow(ctx, "ratelimit:1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("incr after window failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected window reset, got %d", count)
	}
}

func TestCounter(t *testing.T) {
	client, _, ctx := newTestClient(t)

	if _, _, err := client.Counter(ctx, "ratelimit:absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if _, _, err := client.IncrWindow(ctx, "ratelimit:k", 30*time.Second); err != nil {
		t.Fatalf("incr failed: %v", err)
	}
	used, ttl, err := client.Counter(ctx, "ratelimit:k")
	if err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if used != 1 || ttl != 30*time.Second {
		t.Fatalf("unexpected counter %d ttl %v", used, ttl)
	}
}
