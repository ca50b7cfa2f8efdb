package distance

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"relocation-quote/internal/config"
	"relocation-quote/internal/logger"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func testLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skip: cannot start test HTTP server: %v", err)
		}
		t.Fatalf("failed to listen for test server: %v", err)
	}
	ts := httptest.NewUnstartedServer(handler)
	ts.Listener = ln
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

// stubGeocoder отвечает по таблице; адреса вне таблицы не находятся.
type stubGeocoder struct {
	mu     sync.Mutex
	coords map[string]Coordinate
	errs   []error // ошибки первых вызовов по порядку
	calls  int
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return Coordinate{}, err
	}
	c, ok := s.coords[address]
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}
	return c, nil
}

func (s *stubGeocoder) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func noDelayGeocoding(attempts int) *config.GeocodingConfig {
	return &config.GeocodingConfig{Retry: config.RetryConfig{MaxAttempts: attempts, TimeoutSeconds: 2}}
}

func noDelayRouting(attempts int) *config.RoutingConfig {
	return &config.RoutingConfig{Retry: config.RetryConfig{MaxAttempts: attempts, TimeoutSeconds: 2}}
}
