package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/stt"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
	"github.com/adrianngzz/bisonbytes25-v1/internal/api"
	"github.com/adrianngzz/bisonbytes25-v1/internal/auth"
	"github.com/adrianngzz/bisonbytes25-v1/internal/config"
	"github.com/adrianngzz/bisonbytes25-v1/internal/websocket"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "moodmusic",
		Short:        "Conversational mood detection and music recommendations",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP and websocket server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		newTranscribeCommand(),
		newClassifyCommand(),
		newDemoCommand(),
	)
	return root
}

// loadRuntime reads configuration and builds the logger every command shares
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func newTranscriber(cfg *config.Config, logger *zap.Logger) repositories.SpeechToText {
	if cfg.GoogleSpeechEnabled {
		return stt.NewGoogleSpeechToText(logger)
	}
	return stt.NewMockSpeechToText(logger)
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.UsingDevelopmentJWT {
		logger.Warn("JWT_SECRET not set, using development secret")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	hubConfig := websocket.HubConfig{FollowUpDelay: cfg.FollowUpDelay}
	if cfg.GoogleSpeechEnabled {
		hubConfig.ServerCapture = func() websocket.ServerCapture {
			return stt.NewGoogleStreamingCapture(cfg.Capture, logger)
		}
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hub := websocket.NewHub(hubConfig, logger)
	go hub.Run(hubCtx)

	api.InitRoutes(e, api.Dependencies{
		Hub:         hub,
		Tokens:      auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Transcriber: newTranscriber(cfg, logger),
		Logger:      logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Bool("googleSpeech", cfg.GoogleSpeechEnabled),
		zap.Duration("followUpDelay", cfg.FollowUpDelay))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Server is shutting down...")
	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
