package main

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnectionConfig_OverridesOnlyConfiguredFields(t *testing.T) {
	clearEnv(t)
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	config.WebSocket.PingInterval = 5 * time.Second
	config.WebSocket.SendBuffer = 8
	config.WebSocket.MessagesPerSecond = 2
	config.WebSocket.Burst = 3

	cc := connectionConfig(config)

	if cc.PingInterval != 5*time.Second || cc.SendBufferSize != 8 || cc.MessagesPerSecond != 2 || cc.Burst != 3 {
		t.Fatalf("configured fields not applied: %+v", cc)
	}
	if cc.ReadBufferSize != 1024 || cc.WriteBufferSize != 1024 {
		t.Fatalf("buffer sizes = %d/%d, want gateway defaults", cc.ReadBufferSize, cc.WriteBufferSize)
	}
	if cc.CheckOrigin == nil || !cc.CheckOrigin(httptest.NewRequest("GET", "/", nil)) {
		t.Fatalf("expected default origin check to accept any origin")
	}
}
