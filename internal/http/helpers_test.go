package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"liveintent/internal/config"
	"liveintent/internal/connection"
	"liveintent/internal/console"
	"liveintent/internal/session"
)

const testSecret = "test-session-secret-test-session-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		Environment:    "development",
		AllowedOrigins: []string{"http://frontend.test"},
		FrontendURL:    "http://frontend.test",
		SessionSecret:  testSecret,
	}
}

func newTestRegistry(devBypass bool) *console.Registry {
	store := session.NewMemoryStore(time.Hour)
	return console.NewRegistry(store, connection.NewStrategy(true, nil, 0), devBypass, discardLogger())
}

func newTestSession(t *testing.T, devBypass bool) *console.Session {
	t.Helper()
	s, err := newTestRegistry(devBypass).Session(context.Background(), "11111111-2222-3333-4444-555555555555")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

func withSession(r *http.Request, s *console.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), consoleContextKey, s))
}
