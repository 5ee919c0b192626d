package reconcile

import "time"

// StockRecord is the ERP's on-hand quantity for one SKU.
type StockRecord struct {
	// SKU is the ERP product code, the join key with the storefront.
	SKU string `json:"sku" validate:"required"`

	// Quantity is the floored, non-negative on-hand quantity.
	Quantity int `json:"quantity" validate:"gte=0"`
}

// InventoryPolicy is the storefront's oversell setting for a variant.
type InventoryPolicy string

const (
	// PolicyDeny stops selling at zero stock.
	PolicyDeny InventoryPolicy = "deny"
	// PolicyContinue allows overselling; such variants are never written.
	PolicyContinue InventoryPolicy = "continue"
)

// StorefrontVariant is one storefront listing that carries a SKU.
type StorefrontVariant struct {
	SKU             string          `json:"sku" validate:"required"`
	InventoryItemID int64           `json:"inventoryItemId" validate:"gt=0"`
	ProductID       int64           `json:"productId"`
	VariantID       int64           `json:"variantId"`
	CurrentQuantity int             `json:"currentQuantity"`
	Policy          InventoryPolicy `json:"inventoryPolicy" validate:"oneof=deny continue"`
}

// Catalog is the storefront side of a run, indexed by SKU.
type Catalog struct {
	// Variants maps SKU to variant. When a SKU repeats, the later variant wins.
	Variants map[string]StorefrontVariant

	// ProductCount is the number of products read.
	ProductCount int

	// Duplicates lists SKUs that appeared on more than one variant.
	Duplicates []string
}

// Action is the outcome of classifying one ERP SKU.
type Action string

const (
	// ActionNotMatched means the SKU does not exist on the storefront.
	ActionNotMatched Action = "not_matched"
	// ActionSkipPolicy means the variant allows overselling and is write-protected.
	ActionSkipPolicy Action = "skip_policy"
	// ActionSkipNoChange means the storefront already shows the ERP quantity.
	ActionSkipNoChange Action = "skip_nochange"
	// ActionUpdate means the storefront quantity must be set to the ERP quantity.
	ActionUpdate Action = "update"
)

// Decision is the classification of one ERP SKU.
type Decision struct {
	SKU    string `json:"sku"`
	Action Action `json:"action"`

	// FromQty is the storefront quantity (zero when not matched).
	FromQty int `json:"fromQty"`

	// ToQty is the ERP quantity.
	ToQty int `json:"toQty"`

	// InventoryItemID is the storefront item to write, set for matched SKUs.
	InventoryItemID int64 `json:"inventoryItemId,omitempty"`
}

// Phase is a step of the run state machine.
type Phase string

const (
	PhaseStart         Phase = "start"
	PhaseFetching      Phase = "fetching"
	PhaseFetchFailed   Phase = "fetch_failed"
	PhaseFetched       Phase = "fetched"
	PhaseClassifying   Phase = "classifying"
	PhaseClassified    Phase = "classified"
	PhaseDryRunDone    Phase = "dry_run_done"
	PhaseWriting       Phase = "writing"
	PhaseWriteComplete Phase = "write_complete"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// MaxErrorDetails is the default number of per-SKU error messages kept in a result.
const MaxErrorDetails = 10

// MaxSampleSKUs bounds the unmatched SKU samples kept in a result.
const MaxSampleSKUs = 10

// RunResult summarises one reconciliation run. It is built once, after the
// run's last phase, and not modified afterwards.
type RunResult struct {
	ERPCount        int `json:"erpCount"`
	StorefrontCount int `json:"storefrontCount"`

	// Matched counts ERP SKUs found on the storefront. Matched == Updated + Skipped.
	Matched int `json:"matched"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`

	// Skip breakdown: SkippedPolicy + SkippedNoChange + SkippedFailed == Skipped.
	SkippedPolicy   int `json:"skippedPolicy"`
	SkippedNoChange int `json:"skippedNoChange"`
	SkippedFailed   int `json:"skippedFailed"`

	// NotMatched counts ERP SKUs with no storefront listing.
	NotMatched int `json:"notMatched"`

	// NotInERP counts storefront SKUs the ERP does not know.
	NotInERP int `json:"notInErp"`

	// First MaxSampleSKUs of each unmatched set, for the report.
	NotMatchedSKUs []string `json:"notMatchedSkus,omitempty"`
	NotInERPSKUs   []string `json:"notInErpSkus,omitempty"`

	// DuplicateSKUs lists storefront SKUs carried by more than one variant.
	DuplicateSKUs []string `json:"duplicateSkus,omitempty"`

	ErrorCount   int      `json:"errors"`
	ErrorDetails []string `json:"errorDetails"`

	DurationMs int64 `json:"durationMs"`
	DryRun     bool  `json:"dryRun"`
}

// Status derives the persisted status of a completed run.
func (r RunResult) Status() Status {
	if r.ErrorCount > 0 {
		return StatusPartial
	}
	return StatusSuccess
}

// RunState is returned from every invocation of the engine in place of
// process-wide "is running / last result" flags.
type RunState struct {
	RunID      string     `json:"runId"`
	Store      string     `json:"store"`
	DryRun     bool       `json:"dryRun"`
	Phase      Phase      `json:"phase"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	Result     *RunResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	Decisions  []Decision `json:"decisions,omitempty"`
}

// Options controls one run.
type Options struct {
	// RunID identifies the run. A new uuid is used when empty.
	RunID string

	// Store is the business key of the run.
	Store string

	// DryRun computes decisions without issuing any write.
	DryRun bool

	// MaxErrorDetails bounds RunResult.ErrorDetails. Defaults to MaxErrorDetails.
	MaxErrorDetails int
}
