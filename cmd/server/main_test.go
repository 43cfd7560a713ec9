package main

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
)

func testConfig(port string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: port, LogLevel: "info"},
		Backend: config.BackendConfig{BaseURL: "http://127.0.0.1:1"},
		Form:    config.FormConfig{NavigateDelay: time.Millisecond, SessionTTL: time.Minute},
		Reporting: config.ReportingConfig{
			CronSchedule:  "@every 1h",
			SweepSchedule: "@every 1h",
			Timezone:      "UTC",
		},
	}
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	cfg := testConfig("0")
	cfg.Reporting.CronSchedule = "every evening"

	err := run(context.Background(), cfg, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "start scheduler") {
		t.Fatalf("expected scheduler error, got %v", err)
	}
}

func TestRun_ReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, testConfig(port), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "http server crashed") {
		t.Fatalf("expected listen error, got %v", err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig("0"), zap.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
