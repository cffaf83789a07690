package db

import (
	"testing"
	"time"
)

func TestPostgresConfigNormalized(t *testing.T) {
	cfg := PostgresConfig{}.normalized()
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 25 {
		t.Fatalf("unexpected pool sizing: %+v", cfg)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %v", cfg.PingTimeout)
	}

	cfg = PostgresConfig{MaxOpenConns: 10}.normalized()
	if cfg.MaxIdleConns != 10 {
		t.Fatalf("idle conns should track open conns, got %d", cfg.MaxIdleConns)
	}
}
