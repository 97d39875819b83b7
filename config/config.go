// Package config handles service configuration from a YAML file with
// environment overrides for secrets and deployment-specific endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Groq     GroqConfig     `yaml:"groq"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	Mail     MailConfig     `yaml:"mail"`
	Lecture  LectureConfig  `yaml:"lecture"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GroqConfig controls the generative text backend. The API key only comes
// from the environment, never from the file.
type GroqConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"`
}

// WhisperConfig locates the transcription service.
type WhisperConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// MailConfig controls outbound email. Provider is "console" or "sendgrid".
type MailConfig struct {
	Provider  string `yaml:"provider"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	APIKey    string `yaml:"-"`
}

// LectureConfig controls the audio pipeline.
type LectureConfig struct {
	CleanupWait time.Duration `yaml:"cleanup_wait"`
	TempDir     string        `yaml:"temp_dir"`
}

// AnalysisConfig carries tunable scoring thresholds.
type AnalysisConfig struct {
	RiskThreshold       float64 `yaml:"risk_threshold"`
	AttendanceThreshold float64 `yaml:"attendance_threshold"`
	MaxContentWords     int     `yaml:"max_content_words"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{Path: "mentorai.db"},
		Groq: GroqConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
		},
		Whisper: WhisperConfig{Endpoint: "http://localhost:9000/transcribe"},
		Mail: MailConfig{
			Provider:  "console",
			FromName:  "MentorAI",
			FromEmail: "no-reply@mentorai.local",
		},
		Lecture: LectureConfig{CleanupWait: 5 * time.Minute},
		Analysis: AnalysisConfig{
			RiskThreshold:       40,
			AttendanceThreshold: 75,
			MaxContentWords:     3000,
		},
	}
}

// Load reads the YAML file at path (optional: pass "" to use defaults) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.Server.Addr, "LISTEN_ADDR")
	setIfPresent(&c.Database.Path, "DATABASE_PATH")
	setIfPresent(&c.Groq.APIKey, "GROQ_API_KEY")
	setIfPresent(&c.Groq.BaseURL, "GROQ_BASE_URL")
	setIfPresent(&c.Groq.Model, "GROQ_MODEL")
	setIfPresent(&c.Whisper.Endpoint, "WHISPER_ENDPOINT")
	setIfPresent(&c.Mail.Provider, "MAIL_PROVIDER")
	setIfPresent(&c.Mail.APIKey, "SENDGRID_API_KEY")
	setIfPresent(&c.Mail.FromEmail, "MAIL_FROM_EMAIL")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	switch c.Mail.Provider {
	case "console", "sendgrid":
	default:
		return fmt.Errorf("config: unknown mail provider %q", c.Mail.Provider)
	}
	if c.Mail.Provider == "sendgrid" && c.Mail.APIKey == "" {
		return fmt.Errorf("config: mail provider sendgrid requires SENDGRID_API_KEY")
	}
	if c.Analysis.RiskThreshold <= 0 || c.Analysis.RiskThreshold > 100 {
		return fmt.Errorf("config: risk_threshold %v out of range (0, 100]", c.Analysis.RiskThreshold)
	}
	if c.Analysis.AttendanceThreshold <= 0 || c.Analysis.AttendanceThreshold > 100 {
		return fmt.Errorf("config: attendance_threshold %v out of range (0, 100]", c.Analysis.AttendanceThreshold)
	}
	return nil
}
