package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mapaction/mapimporter/internal/server"
	"github.com/mapaction/mapimporter/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import endpoint over HTTP",
	Long: `Start an HTTP server accepting map packages.

Routes:
  POST /import_mapactionzip   multipart form with the package in "upload"
  GET  /dataset/{name}        dataset as JSON
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	listen string
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := newServer(ctx, a)
	if err != nil {
		return err
	}

	addr := serveFlags.listen
	if addr == "" {
		addr = a.cfg.Listen()
	}
	a.logger.Verbose("Serving the %s catalog", a.cfg.CatalogDriver())
	return srv.ListenAndServe(ctx, addr)
}

// newServer wires the import service, its metrics and the HTTP server.
func newServer(ctx context.Context, a *app) (*server.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := a.service(ctx, services.WithMetrics(services.NewMetrics(reg)))
	if err != nil {
		return nil, err
	}
	maxUpload, err := a.cfg.MaxUploadSize()
	if err != nil {
		return nil, err
	}
	return server.New(svc, a.catalog, a.logger,
		server.WithMaxUploadSize(maxUpload),
		server.WithGatherer(reg),
	), nil
}
