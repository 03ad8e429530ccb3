package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/staffing/modules/staffing"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/modules/staffing/presentation/controllers"
	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/configuration"
	"github.com/iota-uz/staffing/pkg/logging"
	"github.com/iota-uz/staffing/pkg/metrics"
	"github.com/iota-uz/staffing/pkg/middleware"
	"github.com/iota-uz/staffing/pkg/versioned/pgstore"
)

const shutdownTimeout = 10 * time.Second

func newServeOpsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-ops",
		Short: "Serve the health check and Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := conf.Logger()
			if addr == "" {
				addr = conf.OpsAddress
			}

			if conf.OpenTelemetry.Enabled {
				cleanup := logging.SetupTracing(cmd.Context(), conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
				defer cleanup()
				logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
			}

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			c, closeCache, err := cache.New(conf.Cache, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeCache(); err != nil {
					logger.WithError(err).Warn("close aggregate cache")
				}
			}()

			app, err := newApp(pgstore.New(), logger, &staffing.ModuleOptions{
				CascadeAncestorDepth: conf.CascadeAncestorDepth,
				Cache:                c,
			})
			if err != nil {
				return err
			}
			var cachePinger controllers.Pinger
			if conf.Cache.Enabled {
				cachePinger = c
			}
			app.RegisterControllers(controllers.NewHealthController(pool, cachePinger, nil))
			if conf.Prometheus.Enabled {
				app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           newOpsRouter(app, logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				logger.Infof("ops endpoint listening on %s", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to OPS_ADDR)")
	return cmd
}

func newOpsRouter(app application.Application, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithLogger(logger))
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	return r
}
