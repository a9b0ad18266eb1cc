package config

import (
	"testing"
	"time"
)

func TestIntFromEnv(t *testing.T) {
	key := "TEST_INT_ENV"

	t.Run("default", func(t *testing.T) {
		got, err := IntFromEnv(key, 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv(key, "100")
		got, err := IntFromEnv(key, 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv(key, "not_int")
		_, err := IntFromEnv(key, 42)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestBoolFromEnv(t *testing.T) {
	key := "TEST_BOOL_ENV"

	tests := []struct {
		val  string
		want bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			t.Setenv(key, tt.val)
			got, err := BoolFromEnv(key, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Setenv(key, "maybe")
		_, err := BoolFromEnv(key, false)
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestStringListFromEnv(t *testing.T) {
	key := "TEST_LIST_ENV"

	t.Setenv(key, "foo,bar, baz")
	got := StringListFromEnv(key, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0] != "foo" || got[1] != "bar" || got[2] != "baz" {
		t.Errorf("mismatch: %v", got)
	}

	t.Setenv(key, "  ")
	got = StringListFromEnv(key, []string{"default"})
	if len(got) != 1 || got[0] != "default" {
		t.Errorf("expected default, got %v", got)
	}
}

func TestDurationFromEnv(t *testing.T) {
	key := "TEST_DURATION_ENV"

	t.Setenv(key, "10")

	// Seconds
	d, err := DurationSecondsFromEnv(key, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}

	// Millis
	d, err = DurationMillisFromEnv(key, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", d)
	}
}

func TestStringFromEnvFirstNonEmpty(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		got := StringFromEnvFirstNonEmpty([]string{"TEST_FOO", "TEST_BAR"}, "default")
		if got != "default" {
			t.Errorf("expected default, got %q", got)
		}
	})

	t.Run("first_non_empty_wins", func(t *testing.T) {
		t.Setenv("TEST_FOO", "foo")
		t.Setenv("TEST_BAR", "bar")
		got := StringFromEnvFirstNonEmpty([]string{"TEST_FOO", "TEST_BAR"}, "default")
		if got != "foo" {
			t.Errorf("expected foo, got %q", got)
		}
	})

	t.Run("skips_empty", func(t *testing.T) {
		t.Setenv("TEST_FOO", "  ")
		t.Setenv("TEST_BAR", "bar")
		got := StringFromEnvFirstNonEmpty([]string{"TEST_FOO", "TEST_BAR"}, "default")
		if got != "bar" {
			t.Errorf("expected bar, got %q", got)
		}
	})
}

func TestIntFromEnvFirstNonEmpty(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		got, err := IntFromEnvFirstNonEmpty([]string{"TEST_INT_FOO", "TEST_INT_BAR"}, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 7 {
			t.Errorf("expected 7, got %d", got)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		t.Setenv("TEST_INT_FOO", "  ")
		t.Setenv("TEST_INT_BAR", "10")
		got, err := IntFromEnvFirstNonEmpty([]string{"TEST_INT_FOO", "TEST_INT_BAR"}, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("TEST_INT_FOO", "oops")
		_, err := IntFromEnvFirstNonEmpty([]string{"TEST_INT_FOO", "TEST_INT_BAR"}, 7)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestReadDatabaseConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := ReadDatabaseConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "localhost" || cfg.Port != 5432 {
			t.Errorf("unexpected host/port: %s:%d", cfg.Host, cfg.Port)
		}
		if cfg.SSLMode != "disable" {
			t.Errorf("expected sslmode=disable, got %q", cfg.SSLMode)
		}
		if cfg.MaxOpenConns != DefaultDBMaxOpenConns {
			t.Errorf("expected MaxOpenConns=%d, got %d", DefaultDBMaxOpenConns, cfg.MaxOpenConns)
		}
	})

	t.Run("postgres_key_fallback", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "db.internal")
		t.Setenv("POSTGRES_PORT", "15432")
		t.Setenv("POSTGRES_DB", "telemetry")
		cfg, err := ReadDatabaseConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Host != "db.internal" || cfg.Port != 15432 || cfg.Database != "telemetry" {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	t.Run("dsn", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable",
		}
		want := "host=h port=5432 user=u password=p dbname=d sslmode=disable"
		if got := cfg.DSN(); got != want {
			t.Errorf("DSN mismatch:\n got %q\nwant %q", got, want)
		}
	})
}

func TestReadIngestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := ReadIngestConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxFrameBytes != DefaultMaxFrameBytes {
			t.Errorf("expected MaxFrameBytes=%d, got %d", DefaultMaxFrameBytes, cfg.MaxFrameBytes)
		}
		if cfg.FrameRate != DefaultFrameRate {
			t.Errorf("expected FrameRate=%v, got %v", float64(DefaultFrameRate), cfg.FrameRate)
		}
		if cfg.WriteTimeout != DefaultWriteTimeoutSeconds*time.Second {
			t.Errorf("expected WriteTimeout=%ds, got %v", DefaultWriteTimeoutSeconds, cfg.WriteTimeout)
		}
		if len(cfg.AllowedOrigins) != 0 {
			t.Errorf("expected no origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("INGEST_MAX_FRAME_BYTES", "4096")
		t.Setenv("INGEST_FRAME_RATE", "2.5")
		t.Setenv("INGEST_FRAME_BURST", "5")
		t.Setenv("INGEST_ALLOWED_ORIGINS", "https://a.example,https://b.example")
		cfg, err := ReadIngestConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxFrameBytes != 4096 || cfg.FrameRate != 2.5 || cfg.FrameBurst != 5 {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if len(cfg.AllowedOrigins) != 2 {
			t.Errorf("expected 2 origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("invalid_frame_bytes", func(t *testing.T) {
		t.Setenv("INGEST_MAX_FRAME_BYTES", "0")
		_, err := ReadIngestConfigFromEnv()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestReadTelemetryConfigFromEnv(t *testing.T) {
	t.Run("disabled_by_default", func(t *testing.T) {
		cfg, err := ReadTelemetryConfigFromEnv("svc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Enabled {
			t.Error("expected disabled by default")
		}
		if cfg.ServiceName != "svc" {
			t.Errorf("expected ServiceName=svc, got %q", cfg.ServiceName)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "0.25")
		cfg, err := ReadTelemetryConfigFromEnv("svc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Enabled || cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	t.Run("invalid_ratio", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "1.5")
		_, err := ReadTelemetryConfigFromEnv("svc")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestReadServerTuningConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := ReadServerTuningConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ReadHeaderTimeout != 5*time.Second {
			t.Errorf("expected ReadHeaderTimeout=5s, got %v", cfg.ReadHeaderTimeout)
		}
		if cfg.IdleTimeout != 90*time.Second {
			t.Errorf("expected IdleTimeout=90s, got %v", cfg.IdleTimeout)
		}
		if cfg.MaxHeaderBytes != 1<<20 {
			t.Errorf("expected MaxHeaderBytes=1MiB, got %d", cfg.MaxHeaderBytes)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("SERVER_READ_HEADER_TIMEOUT_SECONDS", "7")
		t.Setenv("SERVER_IDLE_TIMEOUT_SECONDS", "60")
		t.Setenv("SERVER_MAX_HEADER_BYTES", "8192")
		cfg, err := ReadServerTuningConfigFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ReadHeaderTimeout != 7*time.Second {
			t.Errorf("expected ReadHeaderTimeout=7s, got %v", cfg.ReadHeaderTimeout)
		}
		if cfg.IdleTimeout != 60*time.Second {
			t.Errorf("expected IdleTimeout=60s, got %v", cfg.IdleTimeout)
		}
		if cfg.MaxHeaderBytes != 8192 {
			t.Errorf("expected MaxHeaderBytes=8192, got %d", cfg.MaxHeaderBytes)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("SERVER_MAX_HEADER_BYTES", "-1")
		_, err := ReadServerTuningConfigFromEnv()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
