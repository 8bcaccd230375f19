package main

import (
	"github.com/spf13/cobra"

	"github.com/opencase-io/opencase/internal/logging"
	"github.com/opencase-io/opencase/internal/seeder"
)

var seedOpts seeder.Options

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo data",
	Long: `Generate demo users, cases with comments, and alerts through the
normal service layer, so seeded data carries real system comments and
correct counters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

		svcs, err := buildServices(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer svcs.close(log)

		s := seeder.New(svcs.cases, svcs.alerts, svcs.users, log)
		return s.Run(cmd.Context(), seedOpts)
	},
}

func init() {
	defaults := seeder.DefaultOptions()
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", defaults.Users, "number of users to create")
	seedCmd.Flags().IntVar(&seedOpts.Cases, "cases", defaults.Cases, "number of cases to create")
	seedCmd.Flags().IntVar(&seedOpts.Alerts, "alerts", defaults.Alerts, "number of alerts to create")
	seedCmd.Flags().IntVar(&seedOpts.Comments, "comments", defaults.Comments, "max extra comments per case")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 0, "random seed (0 = random)")
	seedCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations",
		"path to SQL migrations (postgres backend only)")
	rootCmd.AddCommand(seedCmd)
}
