package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loglens/backend/internal/api"
	"github.com/loglens/backend/internal/config"
	"github.com/loglens/backend/internal/logging"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
	"github.com/loglens/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("LOGLENS_CONFIG")
	if configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		configPath = filepath.Join(filepath.Dir(exePath), "loglens.config.xml")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.ParseLevel(cfg.Advanced.LogLevel)
	logging.Init(cfg.Advanced.LogFormat, level)
	api.ShowErrorDetails = level <= slog.LevelDebug

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	indexThreshold := 0
	if cfg.Processing.EnableRecordIndex {
		indexThreshold = cfg.Processing.IndexThreshold
	}
	sessionMgr := session.NewManager(session.ManagerOptions{
		TempDir:        cfg.Storage.TempDirectory,
		ParseCap:       cfg.Processing.ParseCapBytes,
		SampleSize:     cfg.Processing.SampleBytes,
		IndexThreshold: indexThreshold,
	})
	defer sessionMgr.Close()

	palette := parser.DefaultPalette()
	if cfg.Advanced.PaletteFile != "" {
		p, err := parser.LoadPalette(cfg.Advanced.PaletteFile)
		if err != nil {
			slog.Warn("palette not loaded, using defaults", "path", cfg.Advanced.PaletteFile, "error", err)
		} else {
			palette = p
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupLoop(ctx, sessionMgr,
		time.Duration(cfg.Processing.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Processing.SessionTimeoutMinutes)*time.Minute)

	e := echo.New()
	e.HideBanner = true

	origins := strings.Split(cfg.Server.AllowOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	api.SetupMiddleware(e, api.MiddlewareOptions{
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   origins,
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		GzipLevel:      5,
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Store:      fileStore,
		SessionMgr: sessionMgr,
		Probe:      parser.NewProbe(cfg.Extensions(), cfg.Processing.SampleBytes),
		Palette:    palette,
		Limits: api.ViewLimits{
			MaxEntries: cfg.Processing.MaxEntriesView,
			MaxErrors:  cfg.Processing.MaxErrorsView,
		},
		TokenBatchSize:    cfg.Advanced.TokenBatchSize,
		Version:           Version,
		AllowFileDeletion: cfg.Security.AllowFileDeletion,
	})
	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:        cfg.GetServerAddr(),
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// Token streams and SSE progress outlive a fixed write timeout.
		WriteTimeout: 0,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	slog.Info("loglens server starting",
		"version", Version,
		"build", BuildTime,
		"config", configPath,
		"listen", cfg.GetServerAddr(),
		"uploads", cfg.GetUploadDir(),
		"parseCap", cfg.Processing.ParseCapBytes,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func cleanupLoop(ctx context.Context, mgr *session.Manager, every, maxAge time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = session.SessionMaxAge
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mgr.CleanupOldSessions(maxAge)
		case <-ctx.Done():
			return
		}
	}
}
