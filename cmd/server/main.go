package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-server/internal/accounts"
	"go-pos-server/internal/ai"
	"go-pos-server/internal/auth"
	"go-pos-server/internal/config"
	"go-pos-server/internal/database"
	"go-pos-server/internal/handlers"
	"go-pos-server/internal/inventory"
	"go-pos-server/internal/logging"
	"go-pos-server/internal/reports"
	"go-pos-server/internal/sales"
	"go-pos-server/internal/server"
	"go-pos-server/internal/settings"
	"go-pos-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is everything a command needs, built once from the config.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	accounts *accounts.Service
	settings *settings.Service
	handler  *handlers.Handler
}

func newApp() (*app, error) {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if !envLoaded {
		log.Info("no .env file found, using environment only")
	}

	db, err := database.Connect(database.Options{
		Driver: cfg.DBDriver,
		DSN:    cfg.DBDSN,
		Debug:  cfg.LogLevel == "debug",
	}, log)
	if err != nil {
		return nil, err
	}
	files, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	ledger := inventory.NewLedger(db, files, log)
	history := sales.NewService(db)
	rep := reports.NewService(db, history)
	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		accounts: accounts.NewService(db, log),
		settings: settings.NewService(db, files, log),
	}
	a.handler = &handlers.Handler{
		Authority:         auth.NewSessionAuthority(db, auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL), log),
		Accounts:          a.accounts,
		Ledger:            ledger,
		Sales:             history,
		Settings:          a.settings,
		Reports:           rep,
		AllowRegistration: cfg.AllowRegistration,
		Log:               log,
	}
	if cfg.GeminiAPIKey != "" {
		a.handler.Assistant = ai.NewAgent(cfg.GeminiAPIKey, ai.DefaultModel, ai.NewToolbox(ledger, rep), log)
	} else {
		log.Info("assistant disabled, GEMINI_API_KEY not set")
	}
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Point-of-sale backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newUserCmd(), newBackupCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if a.cfg.AllowRegistration {
		a.log.Warn("registration route is OPEN, disable ALLOW_REGISTRATION in production")
	}

	r := server.NewRouter(a.handler, server.Options{
		CORSOrigins: a.cfg.CORSOrigins,
		UploadDir:   a.cfg.UploadDir,
		WebDir:      a.cfg.WebDir,
	}, a.log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("base_url", a.cfg.BaseURL), zap.Int("port", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
