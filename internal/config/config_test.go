package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("SESSION_TTL", "")
	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("expected port 8091, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SurroundingRange != 20 {
		t.Errorf("expected surrounding range 20, got %d", cfg.SurroundingRange)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.SessionTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("SURROUNDING_RANGE", "0")
	t.Setenv("MAX_UPLOAD_BYTES", "garbage")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected clamped worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.SurroundingRange != 20 {
		t.Errorf("expected clamped range 20, got %d", cfg.SurroundingRange)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("expected default upload limit, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error without api key")
	}
	if err := (Config{APIKey: "k"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
