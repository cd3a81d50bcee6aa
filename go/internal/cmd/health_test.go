package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/voterelay/go/internal/relay"
	"github.com/mcdev12/voterelay/go/internal/relay/gateway"
)

type stubRelay struct {
	stats gateway.StatsResponse
	err   error
}

func (s stubRelay) Stats(ctx context.Context) (gateway.StatsResponse, error) {
	return s.stats, s.err
}

type stubFeed bool

func (f stubFeed) IsConnected() bool { return bool(f) }

func TestHealthChecker_Check(t *testing.T) {
	running := stubRelay{stats: gateway.StatsResponse{
		Connections: 3,
		Stats:       relay.Stats{Clients: 2, HasHost: true},
	}}

	tests := []struct {
		name  string
		relay relayStats
		feed  connectionStatus
		want  HealthStatus
	}{
		{
			name:  "feed disabled",
			relay: running,
			want: HealthStatus{
				Healthy: true, RelayRunning: true, Connections: 3, Clients: 2, HasHost: true,
				OutcomeFeed: "disabled", Errors: []string{},
			},
		},
		{
			name:  "feed connected",
			relay: running,
			feed:  stubFeed(true),
			want: HealthStatus{
				Healthy: true, RelayRunning: true, Connections: 3, Clients: 2, HasHost: true,
				OutcomeFeed: "connected", Errors: []string{},
			},
		},
		{
			name:  "feed disconnected stays healthy",
			relay: running,
			feed:  stubFeed(false),
			want: HealthStatus{
				Healthy: true, RelayRunning: true, Connections: 3, Clients: 2, HasHost: true,
				OutcomeFeed: "disconnected", Errors: []string{"NATS disconnected"},
			},
		},
		{
			name:  "relay stopped",
			relay: stubRelay{err: relay.ErrLoopStopped},
			want: HealthStatus{
				OutcomeFeed: "disabled",
				Errors:      []string{"relay loop not responding: " + relay.ErrLoopStopped.Error()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.relay, tt.feed, time.Second)
			if diff := cmp.Diff(tt.want, checker.Check(context.Background())); diff != "" {
				t.Fatalf("health mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHealthChecker_ServeHTTPUnhealthy(t *testing.T) {
	checker := NewHealthChecker(stubRelay{err: errors.New("boom")}, nil, time.Second)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}
