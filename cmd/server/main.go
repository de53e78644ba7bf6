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

	"github.com/anonto42/pulse/backend/internal/handlers"
	"github.com/anonto42/pulse/backend/internal/router"
	"github.com/anonto42/pulse/backend/internal/scheduler"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/anonto42/pulse/backend/pkg/firebase"
	"github.com/anonto42/pulse/backend/pkg/logger"
	"github.com/anonto42/pulse/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

// run starts the server and blocks until it is interrupted. Every resource it
// opens is released before it returns.
func run(cfg *config.Config, log *logrus.Logger) error {
	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when run exits

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Firebase is optional: without credentials there is no Firebase login
	// and images are stored locally.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
	}

	app, err := router.Build(ctx, router.Dependencies{
		Config:   cfg,
		Postgres: db.Postgres,
		Mongo:    db.Mongo,
		Redis:    db.Redis,
		Firebase: firebaseApp,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(log)

	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, app, log)
	if firebaseApp == nil || firebaseApp.Bucket == nil {
		e.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	sched := scheduler.New(app.Publisher, log)
	if err := sched.Start(cfg.PublishSchedule); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	log.WithField("port", cfg.Port).Info("Server started.")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-serveErr:
		runErr = fmt.Errorf("server stopped unexpectedly: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	return runErr
}
