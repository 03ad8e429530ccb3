package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/staffing/modules/staffing"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/modules/staffing/seed"
	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/composables"
	"github.com/iota-uz/staffing/pkg/configuration"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
	"github.com/iota-uz/staffing/pkg/versioned/memstore"
	"github.com/iota-uz/staffing/pkg/versioned/pgstore"
)

type seedOutput struct {
	Command    string     `json:"command"`
	DryRun     bool       `json:"dry_run"`
	DurationMS int64      `json:"duration_ms"`
	Result     seed.Stats `json:"result"`
}

func newSeedCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the aggregates of a fixtures file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			conf := configuration.Use()
			logger := conf.Logger()

			ctx := withLogger(cmd.Context(), logger, "seed")
			var backend versioned.Backend = memstore.New()
			if !dryRun {
				pool, err := connectDB(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()
				ctx = composables.WithPool(ctx, pool)
				backend = pgstore.New()
			}

			c, closeCache, err := cache.New(conf.Cache, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeCache(); err != nil {
					logger.WithError(err).Warn("close aggregate cache")
				}
			}()

			app, err := newApp(backend, logger, &staffing.ModuleOptions{
				CascadeAncestorDepth: conf.CascadeAncestorDepth,
				Cache:                c,
			})
			if err != nil {
				return err
			}

			s := seed.New(fixtures)
			seeder := application.NewSeeder()
			s.Register(seeder)

			start := time.Now()
			if err := seeder.Seed(ctx, app); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), seedOutput{
				Command:    "seed",
				DryRun:     dryRun,
				DurationMS: time.Since(start).Milliseconds(),
				Result:     s.Stats,
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Fixtures YAML file (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Seed an in-memory store instead of the database")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newApp(backend versioned.Backend, logger *logrus.Logger, opts *staffing.ModuleOptions) (application.Application, error) {
	bus := eventbus.NewEventPublisher(logger)
	app := application.New(&application.ApplicationOptions{
		Backend:  backend,
		EventBus: bus,
		Logger:   logger,
	})
	if err := application.Load(app, staffing.NewModule(opts)); err != nil {
		return nil, err
	}
	subscribeEventLog(bus, logger)
	return app, nil
}

// withLogger scopes service logs to one command run.
func withLogger(ctx context.Context, logger *logrus.Logger, command string) context.Context {
	return composables.WithLogger(ctx, logger.WithField("command", command))
}
