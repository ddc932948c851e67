package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "VERIFY_WORKERS", "UNLOCK_TOKEN_TTL", "MAX_PAYLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.VerifyWorkers != 4 {
		t.Fatalf("unexpected workers %d", cfg.VerifyWorkers)
	}
	if cfg.UnlockTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected ttl %s", cfg.UnlockTokenTTL)
	}
	if cfg.MaxPayloadBytes != 10<<20 {
		t.Fatalf("unexpected max payload %d", cfg.MaxPayloadBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VERIFY_WORKERS", "2")
	t.Setenv("UNLOCK_TOKEN_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VerifyWorkers != 2 || cfg.UnlockTokenTTL != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"VERIFY_WORKERS":    "zero",
		"MAX_PAYLOAD_BYTES": "-5",
		"SHUTDOWN_TIMEOUT":  "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
