package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"inventory-sync/core/config"
	"inventory-sync/core/connector"
	"inventory-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var healthStore string

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the ERP and storefront connectors",
	Long:  `Runs a minimal read against each connector of every store (or one with --store) and checks the run-log schema. Exits non-zero when any connector is down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		a, err := newApp(ctx, cfg, l)
		if err != nil {
			return err
		}

		var out any
		status := connector.StatusHealthy
		if healthStore != "" {
			sh, err := a.health.CheckStore(ctx, healthStore)
			if err != nil {
				return err
			}
			out, status = sh, sh.Status
		} else {
			report := a.health.CheckAll(ctx)
			out, status = report, report.Status
		}

		runlogReport := a.health.CheckRunLog(ctx)
		if !runlogReport.Healthy() {
			l.Warn("Run log check failed", zap.Strings("errors", runlogReport.Errors))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"connectors": out, "runlog": runlogReport}); err != nil {
			return err
		}

		if status == connector.StatusDown {
			return fmt.Errorf("at least one connector is down")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthStore, "store", "", "Only probe this store")
	RootCmd.AddCommand(healthCmd)
}
