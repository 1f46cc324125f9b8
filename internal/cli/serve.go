package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the cro HTTP server.

The server provides:
  - Upload and analyze endpoint at POST /api/analyze
  - Dashboard for uploading files and reading reports
  - Health check and Prometheus metrics endpoints

Example:
  cro serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = opts.cfg.Server.Port
			}

			srv := server.New(server.Config{
				Port:           port,
				Log:            opts.log,
				Runner:         analysis.NewRunner(opts.log),
				Token:          opts.cfg.Server.Token,
				MaxUploadBytes: opts.cfg.Server.MaxUploadBytes(),
				Seed:           opts.cfg.Seed,
				Timeout:        opts.cfg.Timeout,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintf(out, "cro running on http://localhost:%d\n", port)
			fmt.Fprintf(out, "Dashboard: %s\n", srv.DashboardURL())
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}
