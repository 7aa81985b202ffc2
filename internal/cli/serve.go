package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/boxoffice/internal/api"
	"github.com/roach88/boxoffice/internal/engine"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database        string
	Addr            string
	ShutdownTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Replay the database and serve the ledger over HTTP. Mutations are
applied one at a time by a single engine and appended to the log.
Prometheus metrics are exposed at /metrics.

The server stops on SIGINT or SIGTERM.

Example:
  boxoffice serve --db ./box.db --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.Logger(cmd, slog.LevelInfo)

	stopCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(stopCtx, opts.Database, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           serveHandler(stopCtx, s, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", "addr", opts.Addr, "db", opts.Database, "last_seq", s.lastSeq)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = WrapExitError(ExitFailure, "server error", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return serveErr
}

// serveHandler starts the session's engine with metrics registered on a
// fresh registry and returns the routed HTTP handler.
func serveHandler(ctx context.Context, s *session, logger *slog.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.start(ctx, engine.WithMetrics(engine.NewMetrics(reg)))

	srv := api.NewServer(s.engine, s.ledger,
		api.WithLogger(logger),
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)
	return srv.Handler()
}
