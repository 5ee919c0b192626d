package reconcile

import "sort"

// Plan is the classified view of one run, before any write is applied.
type Plan struct {
	// Decisions holds one decision per ERP SKU, in ERP order.
	Decisions []Decision `json:"decisions"`

	// Updates is the ordered subset of Decisions with ActionUpdate.
	Updates []Decision `json:"updates"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	ERPCount        int      `json:"erpCount"`
	StorefrontCount int      `json:"storefrontCount"`
	Matched         int      `json:"matched"`
	SkippedPolicy   int      `json:"skippedPolicy"`
	SkippedNoChange int      `json:"skippedNoChange"`
	Updates         int      `json:"updates"`
	NotMatched      int      `json:"notMatched"`
	NotInERP        int      `json:"notInErp"`
	Duplicates      []string `json:"duplicates,omitempty"`

	// NotMatchedSKUs holds the first MaxSampleSKUs not_matched SKUs in ERP order.
	NotMatchedSKUs []string `json:"notMatchedSkus,omitempty"`
	// NotInERPSKUs holds the first MaxSampleSKUs storefront-only SKUs, sorted.
	NotInERPSKUs []string `json:"notInErpSkus,omitempty"`
}

// Classify returns one decision per distinct ERP SKU, in the order the SKU
// first appears in stock. If the ERP reports a SKU twice the later quantity wins.
//
// Rules, in order:
//   - no storefront variant: not_matched
//   - variant allows overselling: skip_policy, whatever the quantities
//   - quantities equal: skip_nochange
//   - otherwise: update from the storefront quantity to the ERP quantity
func Classify(stock []StockRecord, catalog *Catalog) []Decision {
	quantities := make(map[string]int, len(stock))
	order := make([]string, 0, len(stock))
	for _, record := range stock {
		if _, seen := quantities[record.SKU]; !seen {
			order = append(order, record.SKU)
		}
		quantities[record.SKU] = record.Quantity
	}

	var variants map[string]StorefrontVariant
	if catalog != nil {
		variants = catalog.Variants
	}

	decisions := make([]Decision, 0, len(order))
	for _, sku := range order {
		decisions = append(decisions, classifyOne(sku, quantities[sku], variants))
	}
	return decisions
}

func classifyOne(sku string, erpQty int, variants map[string]StorefrontVariant) Decision {
	variant, ok := variants[sku]
	if !ok {
		return Decision{SKU: sku, Action: ActionNotMatched, ToQty: erpQty}
	}

	d := Decision{
		SKU:             sku,
		FromQty:         variant.CurrentQuantity,
		ToQty:           erpQty,
		InventoryItemID: variant.InventoryItemID,
	}

	switch {
	case variant.Policy == PolicyContinue:
		d.Action = ActionSkipPolicy
	case variant.CurrentQuantity == erpQty:
		d.Action = ActionSkipNoChange
	default:
		d.Action = ActionUpdate
	}
	return d
}

// BuildPlan classifies stock against catalog and summarises the outcome.
func BuildPlan(stock []StockRecord, catalog *Catalog) *Plan {
	if catalog == nil {
		catalog = &Catalog{}
	}

	decisions := Classify(stock, catalog)
	plan := &Plan{Decisions: decisions}

	summary := PlanSummary{
		ERPCount:        len(stock),
		StorefrontCount: catalog.ProductCount,
		Duplicates:      catalog.Duplicates,
	}

	inERP := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		inERP[d.SKU] = struct{}{}

		switch d.Action {
		case ActionNotMatched:
			summary.NotMatched++
			if len(summary.NotMatchedSKUs) < MaxSampleSKUs {
				summary.NotMatchedSKUs = append(summary.NotMatchedSKUs, d.SKU)
			}
			continue
		case ActionSkipPolicy:
			summary.SkippedPolicy++
		case ActionSkipNoChange:
			summary.SkippedNoChange++
		case ActionUpdate:
			summary.Updates++
			plan.Updates = append(plan.Updates, d)
		}
		summary.Matched++
	}

	var notInERP []string
	for sku := range catalog.Variants {
		if _, ok := inERP[sku]; !ok {
			notInERP = append(notInERP, sku)
		}
	}
	sort.Strings(notInERP)
	summary.NotInERP = len(notInERP)
	if len(notInERP) > MaxSampleSKUs {
		notInERP = notInERP[:MaxSampleSKUs]
	}
	summary.NotInERPSKUs = notInERP

	plan.Summary = summary
	return plan
}
