package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Analysis.RiskThreshold != 40 || cfg.Analysis.AttendanceThreshold != 75 {
		t.Fatalf("thresholds = %+v", cfg.Analysis)
	}
	if cfg.Mail.Provider != "console" {
		t.Fatalf("mail provider = %q", cfg.Mail.Provider)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  shutdown_timeout: 30s
analysis:
  risk_threshold: 50
  attendance_threshold: 80
  max_content_words: 1000
`), 0o644)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Analysis.RiskThreshold != 50 {
		t.Fatalf("risk = %v", cfg.Analysis.RiskThreshold)
	}
	// untouched sections keep defaults
	if cfg.Whisper.Endpoint != "http://localhost:9000/transcribe" {
		t.Fatalf("whisper = %q", cfg.Whisper.Endpoint)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("WHISPER_ENDPOINT", "http://whisper:9000/transcribe")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Groq.APIKey != "gsk_test" {
		t.Fatalf("api key = %q", cfg.Groq.APIKey)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Whisper.Endpoint != "http://whisper:9000/transcribe" {
		t.Fatalf("whisper = %q", cfg.Whisper.Endpoint)
	}
}

func TestLoad_SendgridRequiresKey(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "sendgrid")
	t.Setenv("SENDGRID_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("want error for sendgrid without key")
	}
}

func TestLoad_BadThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("analysis:\n  risk_threshold: 140\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("want error for out-of-range threshold")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("want error for missing file")
	}
}
