package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MorpheusAI HTTP server",
	Long: `Start MorpheusAI as a server that exposes the session API,
the per-agent endpoints, an SSE event stream and a websocket for
user control notifications.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config, then 3001)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, app.Options{})
	if err != nil {
		return err
	}

	srv := a.Server(servePort)
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("version", Version).Msg("starting MorpheusAI server")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
	}

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	if err := a.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("agent shutdown error")
	}

	logging.Info().Msg("server stopped")
	return serveErr
}
