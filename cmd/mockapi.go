package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/restkit/internal/mockapi"
)

func (a *app) mockAPICmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mockapi",
		Short: "Serve an in-memory TastyPie API for trying restkit out",
		Long: fmt.Sprintf(`Serve an in-memory TastyPie API with users and projects under %s.
Use api key %q for john.doe, or basic auth admin/%s.`,
			mockapi.APIPath, mockapi.JohnDoeAPIKey, mockapi.AdminPassword),
		Example:     "  restkit mockapi --addr 127.0.0.1:8000 &\n  restkit --tastypie --baseurl http://127.0.0.1:8000/api/v0/ resources",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			return serveMockAPI(cmd.Context(), a, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "address to listen on")
	return cmd
}

// serveMockAPI serves until ctx is cancelled, then shuts down gracefully
func serveMockAPI(ctx context.Context, a *app, ln net.Listener) error {
	srv := &http.Server{
		Handler:      mockapi.New(a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", ln.Addr().String()).Str("path", mockapi.APIPath).Msg("Mock API listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down mock API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
