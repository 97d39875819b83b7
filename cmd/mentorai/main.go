// Command mentorai serves the teaching analytics API: artifact ingestion
// (gradebooks, syllabi, attendance sheets, lecture audio), insight synthesis
// over a generative text backend, and notification delivery.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mentorai/backend/config"
	"github.com/mentorai/backend/extract"
	"github.com/mentorai/backend/groq"
	"github.com/mentorai/backend/insight"
	"github.com/mentorai/backend/janitor"
	"github.com/mentorai/backend/lecture"
	"github.com/mentorai/backend/mailer"
	"github.com/mentorai/backend/store"
	"github.com/mentorai/backend/synthesis"
	"github.com/mentorai/backend/tabular"
	"github.com/mentorai/backend/whisper"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio instead of HTTP")
	flag.Parse()

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var lvl slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.Groq.APIKey == "" {
		logger.Error("GROQ_API_KEY is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Database.Path, store.WithMkdirAll())
	if err != nil {
		logger.Error("store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	completer := groq.New(cfg.Groq.APIKey,
		groq.WithBaseURL(cfg.Groq.BaseURL),
		groq.WithModel(cfg.Groq.Model))
	gateway := synthesis.NewGateway(completer,
		synthesis.WithLogger(logger),
		synthesis.WithMaxContentWords(cfg.Analysis.MaxContentWords))

	if *mcpStdio {
		runMCP(ctx, gateway, logger)
		return
	}

	jan := janitor.New(st.DB(), janitor.Options{Logger: logger})
	if err := jan.EnsureTable(ctx); err != nil {
		logger.Error("janitor table", "error", err)
		os.Exit(1)
	}
	go jan.Run(ctx)

	var mail mailer.Service
	switch cfg.Mail.Provider {
	case "sendgrid":
		mail = mailer.NewSendgrid(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logger)
	default:
		mail = mailer.NewConsole(logger)
	}

	pipeline := lecture.New(
		whisper.New(whisper.WithEndpoint(cfg.Whisper.Endpoint)),
		gateway, st, jan,
		lecture.WithLogger(logger),
		lecture.WithCleanupWait(cfg.Lecture.CleanupWait),
		lecture.WithTempBase(cfg.Lecture.TempDir),
	)

	srv := &server{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		gateway:    gateway,
		analyzer:   tabular.New(tabular.WithRiskThreshold(cfg.Analysis.RiskThreshold)),
		extractor:  extract.New(extract.Config{Logger: logger}),
		detector:   insight.NewDetector(gateway),
		engagement: insight.NewEngagement(gateway),
		pipeline:   pipeline,
		mail:       mail,
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// runMCP exposes the synthesis tools over stdio for editor and agent
// integrations.
func runMCP(ctx context.Context, gateway *synthesis.Gateway, logger *slog.Logger) {
	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    "mentorai",
		Version: "1.0.0",
	}, nil)
	gateway.RegisterMCP(mcpSrv)

	logger.Info("MCP stdio serving")
	if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("MCP server", "error", err)
		os.Exit(1)
	}
}
