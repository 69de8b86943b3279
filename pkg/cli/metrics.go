package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/bizauthz/pkg/observability"
)

func newServeMetricsCommand() *Command {
	cmd := &Command{
		Name:        "serve-metrics",
		Description: "Expose /metrics and periodically report catalog stats",
		Flags:       flag.NewFlagSet("serve-metrics", flag.ExitOnError),
		Run:         runServeMetrics,
	}
	cmd.Flags.String("addr", "", "Listen address (defaults to BIZAUTHZ_METRICS_ADDR)")
	cmd.Flags.Duration("interval", 30*time.Second, "Interval between catalog stats reports")
	return cmd
}

func runServeMetrics(args []string) error {
	cmd := newServeMetricsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	interval, err := time.ParseDuration(cmd.Flags.Lookup("interval").Value.String())
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := openEnvironment(ctx, metrics)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.manager.Initialize(ctx, env.db); err != nil {
		return err
	}

	addr := cmd.Flags.Lookup("addr").Value.String()
	if addr == "" {
		addr = env.config.MetricsAddr
	}

	mux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(mux, registry)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		env.log.Info("Received shutdown signal, stopping metrics server...")
		cancel()
	}()

	serveErr := make(chan error, 1)
	go func() {
		env.log.Infof("Serving metrics on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)

		case err, ok := <-serveErr:
			if ok {
				return err
			}
			return nil

		case <-ticker.C:
			stats, err := env.manager.GetStats(ctx)
			if err != nil {
				env.log.Errorf("Failed to read catalog stats: %v", err)
				continue
			}
			env.log.WithFields(logrus.Fields{
				"total":    stats.Total,
				"active":   stats.Active,
				"inactive": stats.Inactive,
			}).Info("catalog stats")
		}
	}
}
