package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/staffing/migrations"
)

type migrationOutput struct {
	Version   int64  `json:"version"`
	Path      string `json:"path"`
	State     string `json:"state,omitempty"`
	Direction string `json:"direction,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the staffing schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			results, err := migrations.Up(cmd.Context(), pool)
			if err != nil {
				return err
			}
			out := make([]migrationOutput, 0, len(results))
			for _, r := range results {
				out = append(out, migrationOutput{
					Version:   r.Source.Version,
					Path:      r.Source.Path,
					Direction: r.Direction,
					Duration:  r.Duration.String(),
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			r, err := migrations.Down(cmd.Context(), pool)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), migrationOutput{
				Version:   r.Source.Version,
				Path:      r.Source.Path,
				Direction: r.Direction,
				Duration:  r.Duration.String(),
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := migrations.Status(cmd.Context(), pool)
			if err != nil {
				return err
			}
			out := make([]migrationOutput, 0, len(statuses))
			for _, s := range statuses {
				out = append(out, migrationOutput{
					Version: s.Source.Version,
					Path:    s.Source.Path,
					State:   string(s.State),
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	})
	return cmd
}
