package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steelhand/steelhand/internal/app"
	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/voice"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Start the voice gateway",
	Long: `Start the websocket gateway the voice pipeline connects to.
The pipeline streams user transcripts in and receives agent replies
to synthesize.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVoice()
	},
}

func init() {
	rootCmd.AddCommand(voiceCmd)
}

func runVoice() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})
	logger.Info("starting voice gateway", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	gateway, err := voice.NewGateway(a.ChatAgent, logger)
	if err != nil {
		return fmt.Errorf("creating voice gateway: %w", err)
	}

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux)

	// No read/write timeouts: gateway connections are long-lived.
	srv := &http.Server{
		Addr:              cfg.VoiceAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("voice gateway ready", "addr", cfg.VoiceAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down voice gateway")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("voice gateway: %w", err)
	}
}
