package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchError reports that one side of the run could not be read completely.
// Runs that fail with a FetchError never issue a write.
type FetchError struct {
	// Source is "erp" or "storefront".
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Engine reconciles a storefront's displayed stock against the ERP.
type Engine struct {
	stock      StockSource
	storefront Storefront
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates an engine over the two adapters.
func NewEngine(stock StockSource, storefront Storefront, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		stock:      stock,
		storefront: storefront,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one reconciliation. The returned state is always non-nil; when
// the fetch phase fails it carries PhaseFetchFailed and the error is a *FetchError.
func (e *Engine) Run(ctx context.Context, opts Options) (*RunState, error) {
	maxDetails := opts.MaxErrorDetails
	if maxDetails <= 0 {
		maxDetails = MaxErrorDetails
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	start := e.now()
	state := &RunState{
		RunID:     runID,
		Store:     opts.Store,
		DryRun:    opts.DryRun,
		Phase:     PhaseStart,
		StartedAt: start,
	}
	l := e.logger.With(
		zap.String("store", opts.Store),
		zap.String("run_id", state.RunID),
		zap.Bool("dry_run", opts.DryRun),
	)

	state.Phase = PhaseFetching
	stock, catalog, err := e.fetch(ctx)
	if err != nil {
		state.Phase = PhaseFetchFailed
		state.Status = StatusError
		state.Error = err.Error()
		state.FinishedAt = e.now()
		l.Error("Fetch phase failed, no writes issued", zap.Error(err))
		return state, err
	}
	state.Phase = PhaseFetched

	state.Phase = PhaseClassifying
	plan := BuildPlan(stock, catalog)
	state.Decisions = plan.Decisions
	state.Phase = PhaseClassified

	if len(plan.Summary.Duplicates) > 0 {
		l.Warn("Duplicate storefront SKUs, last variant wins",
			zap.Strings("skus", plan.Summary.Duplicates))
	}

	l.Info("Reconciliation planned",
		zap.Int("erp_count", plan.Summary.ERPCount),
		zap.Int("storefront_count", plan.Summary.StorefrontCount),
		zap.Int("matched", plan.Summary.Matched),
		zap.Int("updates", plan.Summary.Updates),
		zap.Int("not_matched", plan.Summary.NotMatched),
	)

	var outcome ApplyOutcome
	if opts.DryRun {
		outcome = ApplyOutcome{Updated: len(plan.Updates)}
		state.Phase = PhaseDryRunDone
	} else {
		state.Phase = PhaseWriting
		outcome = e.Apply(ctx, plan.Updates, maxDetails)
		state.Phase = PhaseWriteComplete
	}

	state.FinishedAt = e.now()
	result := buildResult(plan.Summary, outcome, opts.DryRun, state.FinishedAt.Sub(start))
	state.Result = &result
	state.Status = result.Status()

	l.Info("Reconciliation finished",
		zap.String("status", string(state.Status)),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.ErrorCount),
		zap.Int64("duration_ms", result.DurationMs),
	)

	return state, nil
}

// fetch reads both sides concurrently. The first failure cancels the other fetch.
func (e *Engine) fetch(ctx context.Context) ([]StockRecord, *Catalog, error) {
	var (
		stock   []StockRecord
		catalog *Catalog
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := e.stock.FetchStock(gCtx)
		if err != nil {
			return &FetchError{Source: "erp", Err: err}
		}
		stock = records
		return nil
	})
	g.Go(func() error {
		c, err := e.storefront.FetchVariants(gCtx)
		if err != nil {
			return &FetchError{Source: "storefront", Err: err}
		}
		catalog = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return stock, catalog, nil
}

// ApplyOutcome is the result of the write phase.
type ApplyOutcome struct {
	Updated      int
	Failed       int
	ErrorDetails []string
}

// Apply writes every update strictly in order, one at a time. A failed write
// is recorded as "<sku>: <message>" (at most maxDetails messages are kept) and
// the loop moves on to the next SKU.
func (e *Engine) Apply(ctx context.Context, updates []Decision, maxDetails int) ApplyOutcome {
	var out ApplyOutcome

	for _, d := range updates {
		if d.Action != ActionUpdate {
			continue
		}

		if err := e.storefront.SetInventory(ctx, d.InventoryItemID, d.ToQty); err != nil {
			out.Failed++
			if len(out.ErrorDetails) < maxDetails {
				out.ErrorDetails = append(out.ErrorDetails, fmt.Sprintf("%s: %s", d.SKU, err.Error()))
			}
			e.logger.Warn("Inventory update failed",
				zap.String("sku", d.SKU),
				zap.Int64("inventory_item_id", d.InventoryItemID),
				zap.Error(err))
			continue
		}

		out.Updated++
		e.logger.Debug("Inventory updated",
			zap.String("sku", d.SKU),
			zap.Int("from", d.FromQty),
			zap.Int("to", d.ToQty))
	}

	return out
}

func buildResult(s PlanSummary, out ApplyOutcome, dryRun bool, duration time.Duration) RunResult {
	details := out.ErrorDetails
	if details == nil {
		details = []string{}
	}

	// A failed write leaves the listing as it was, so it counts as skipped.
	skipped := s.SkippedPolicy + s.SkippedNoChange + out.Failed

	return RunResult{
		ERPCount:        s.ERPCount,
		StorefrontCount: s.StorefrontCount,
		Matched:         s.Matched,
		Updated:         out.Updated,
		Skipped:         skipped,
		SkippedPolicy:   s.SkippedPolicy,
		SkippedNoChange: s.SkippedNoChange,
		SkippedFailed:   out.Failed,
		NotMatched:      s.NotMatched,
		NotInERP:        s.NotInERP,
		NotMatchedSKUs:  s.NotMatchedSKUs,
		NotInERPSKUs:    s.NotInERPSKUs,
		DuplicateSKUs:   s.Duplicates,
		ErrorCount:      out.Failed,
		ErrorDetails:    details,
		DurationMs:      duration.Milliseconds(),
		DryRun:          dryRun,
	}
}
