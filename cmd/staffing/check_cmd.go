package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/staffing/migrations"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/persistence"
	"github.com/iota-uz/staffing/pkg/configuration"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type checkOutput struct {
	Command           string   `json:"command"`
	OK                bool     `json:"ok"`
	PendingMigrations int      `json:"pending_migrations"`
	Kinds             int      `json:"kinds"`
	Relations         int      `json:"relations"`
	MissingTables     []string `json:"missing_tables,omitempty"`
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the database matches the staffing schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := persistence.NewSchema(configuration.Use().CascadeAncestorDepth)
			if err != nil {
				return err
			}
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := migrations.Status(cmd.Context(), pool)
			if err != nil {
				return err
			}
			missing, err := missingTables(cmd.Context(), pool, schemaTables(schema))
			if err != nil {
				return err
			}

			out := checkOutput{
				Command:           "check",
				PendingMigrations: migrations.Pending(statuses),
				Kinds:             len(schema.Kinds()),
				Relations:         len(schema.Relations()),
				MissingTables:     missing,
			}
			out.OK = out.PendingMigrations == 0 && len(missing) == 0
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.OK {
				return fmt.Errorf("check failed: %d pending migrations, %d missing tables", out.PendingMigrations, len(missing))
			}
			return nil
		},
	}
}

// schemaTables lists every table the schema reads or writes, once each.
func schemaTables(schema *versioned.Schema) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(table string) {
		if _, ok := seen[table]; ok {
			return
		}
		seen[table] = struct{}{}
		out = append(out, table)
	}
	for _, k := range schema.Kinds() {
		add(k.Table)
	}
	for _, r := range schema.Relations() {
		add(r.JoinTable)
	}
	return out
}

func missingTables(ctx context.Context, pool *pgxpool.Pool, tables []string) ([]string, error) {
	var missing []string
	for _, table := range tables {
		var exists bool
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
			return nil, fmt.Errorf("look up table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
