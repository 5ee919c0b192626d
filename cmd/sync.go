package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"inventory-sync/core/config"
	"inventory-sync/core/logger"
	"inventory-sync/core/reconcile"
	"inventory-sync/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncStore  string
	syncDryRun bool
	syncYes    bool
	syncJSON   bool
)

// syncCmd runs one reconciliation from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync ERP stock to a storefront",
	Long: `Reconcile one store's storefront inventory against the ERP.

A live run first plans the changes as a dry run and asks for confirmation.

Examples:
  # Show what would change
  sync --store teelixir --dry-run

  # Apply with interactive confirmation
  sync --store elevate

  # Apply without prompting (cron)
  sync --store elevate --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncStore, "store", "", "Store to sync (defaults to sync.default_store)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute changes without writing to the storefront")
	syncCmd.Flags().BoolVar(&syncYes, "yes", false, "Auto-confirm the live run (non-interactive)")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	store := a.sync.StoreName(strings.ToLower(strings.TrimSpace(syncStore)))
	l = logger.WithStore(l, store)

	if !syncDryRun && !syncYes {
		l.Info("Planning sync...")
		plan, err := a.sync.Sync(ctx, inventory.SyncRequest{Store: store, DryRun: true})
		if err != nil {
			return fmt.Errorf("failed to plan sync: %w", err)
		}
		printSyncReport(l, plan)

		if plan.Result.Updated == 0 {
			l.Info("Storefront already matches the ERP. Nothing to write.")
			return nil
		}
		if !confirmLiveRun() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	state, err := a.sync.Sync(ctx, inventory.SyncRequest{Store: store, DryRun: syncDryRun})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inventory.NewSyncResponse(state))
	}

	printSyncReport(l, state)
	return nil
}

// printSyncReport logs the counters of a run and a sample of its decisions.
func printSyncReport(l *zap.Logger, state *reconcile.RunState) {
	r := state.Result

	l.Info("Sync report",
		zap.String("run_id", state.RunID),
		zap.Bool("dry_run", state.DryRun),
		zap.String("status", string(state.Status)),
		zap.Int("erp_count", r.ERPCount),
		zap.Int("storefront_count", r.StorefrontCount),
		zap.Int("matched", r.Matched),
		zap.Int("updated", r.Updated),
		zap.Int("skipped", r.Skipped),
		zap.Int("not_matched", r.NotMatched),
		zap.Int("not_in_erp", r.NotInERP),
		zap.Int("errors", r.ErrorCount),
		zap.Int64("duration_ms", r.DurationMs),
	)

	var updates []reconcile.Decision
	for _, d := range state.Decisions {
		if d.Action == reconcile.ActionUpdate {
			updates = append(updates, d)
		}
	}

	maxShow := min(5, len(updates))
	for _, d := range updates[:maxShow] {
		l.Info("Sample update", zap.String("sku", d.SKU), zap.Int("from", d.FromQty), zap.Int("to", d.ToQty))
	}
	if len(updates) > maxShow {
		l.Info("Additional updates not shown", zap.Int("count", len(updates)-maxShow))
	}

	for _, detail := range r.ErrorDetails {
		l.Warn("Write failed", zap.String("detail", detail))
	}
	if len(r.DuplicateSKUs) > 0 {
		l.Warn("Duplicate storefront SKUs", zap.Strings("skus", r.DuplicateSKUs))
	}
	if len(r.NotMatchedSKUs) > 0 {
		l.Info("ERP SKUs missing from the storefront",
			zap.Strings("skus", r.NotMatchedSKUs), zap.Int("total", r.NotMatched))
	}
	if len(r.NotInERPSKUs) > 0 {
		l.Info("Storefront SKUs missing from the ERP",
			zap.Strings("skus", r.NotInERPSKUs), zap.Int("total", r.NotInERP))
	}
}

// confirmLiveRun prompts the user for confirmation.
func confirmLiveRun() bool {
	fmt.Print("\nType 'yes' to write these quantities to the storefront: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
