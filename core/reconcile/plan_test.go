package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	catalog := &Catalog{Variants: map[string]StorefrontVariant{
		"UPD":  {SKU: "UPD", InventoryItemID: 1, CurrentQuantity: 5, Policy: PolicyDeny},
		"SAME": {SKU: "SAME", InventoryItemID: 2, CurrentQuantity: 7, Policy: PolicyDeny},
		"OVER": {SKU: "OVER", InventoryItemID: 3, CurrentQuantity: 7, Policy: PolicyContinue},
	}}
	stock := []StockRecord{
		{SKU: "UPD", Quantity: 10},
		{SKU: "SAME", Quantity: 7},
		{SKU: "OVER", Quantity: 0},
		{SKU: "MISSING", Quantity: 2},
	}

	decisions := Classify(stock, catalog)
	require.Len(t, decisions, 4)

	assert.Equal(t, Decision{SKU: "UPD", Action: ActionUpdate, FromQty: 5, ToQty: 10, InventoryItemID: 1}, decisions[0])
	assert.Equal(t, ActionSkipNoChange, decisions[1].Action)
	assert.Equal(t, ActionSkipPolicy, decisions[2].Action)
	assert.Equal(t, ActionNotMatched, decisions[3].Action)
	assert.Zero(t, decisions[3].InventoryItemID)
}

func TestClassify_PolicyWinsOverEqualQuantity(t *testing.T) {
	catalog := &Catalog{Variants: map[string]StorefrontVariant{
		"X": {SKU: "X", InventoryItemID: 1, CurrentQuantity: 4, Policy: PolicyContinue},
	}}

	decisions := Classify([]StockRecord{{SKU: "X", Quantity: 4}}, catalog)
	require.Len(t, decisions, 1)
	assert.Equal(t, ActionSkipPolicy, decisions[0].Action)
}

func TestClassify_DuplicateERPCodeLastWins(t *testing.T) {
	catalog := &Catalog{Variants: map[string]StorefrontVariant{
		"A": {SKU: "A", InventoryItemID: 1, CurrentQuantity: 0, Policy: PolicyDeny},
		"B": {SKU: "B", InventoryItemID: 2, CurrentQuantity: 0, Policy: PolicyDeny},
	}}
	stock := []StockRecord{{SKU: "A", Quantity: 1}, {SKU: "B", Quantity: 2}, {SKU: "A", Quantity: 9}}

	decisions := Classify(stock, catalog)
	require.Len(t, decisions, 2)
	assert.Equal(t, "A", decisions[0].SKU)
	assert.Equal(t, 9, decisions[0].ToQty)
	assert.Equal(t, "B", decisions[1].SKU)
}

func TestClassify_NilCatalog(t *testing.T) {
	decisions := Classify([]StockRecord{{SKU: "A", Quantity: 1}}, nil)
	require.Len(t, decisions, 1)
	assert.Equal(t, ActionNotMatched, decisions[0].Action)
}

func TestBuildPlan_Summary(t *testing.T) {
	catalog := &Catalog{
		Variants: map[string]StorefrontVariant{
			"UPD":   {SKU: "UPD", InventoryItemID: 1, CurrentQuantity: 5, Policy: PolicyDeny},
			"SAME":  {SKU: "SAME", InventoryItemID: 2, CurrentQuantity: 7, Policy: PolicyDeny},
			"OVER":  {SKU: "OVER", InventoryItemID: 3, CurrentQuantity: 7, Policy: PolicyContinue},
			"EXTRA": {SKU: "EXTRA", InventoryItemID: 4, CurrentQuantity: 1, Policy: PolicyDeny},
		},
		ProductCount: 3,
		Duplicates:   []string{"SAME"},
	}
	stock := []StockRecord{
		{SKU: "UPD", Quantity: 10},
		{SKU: "SAME", Quantity: 7},
		{SKU: "OVER", Quantity: 0},
		{SKU: "MISSING", Quantity: 2},
	}

	plan := BuildPlan(stock, catalog)

	assert.Equal(t, PlanSummary{
		ERPCount:        4,
		StorefrontCount: 3,
		Matched:         3,
		SkippedPolicy:   1,
		SkippedNoChange: 1,
		Updates:         1,
		NotMatched:      1,
		NotInERP:        1,
		Duplicates:      []string{"SAME"},
		NotMatchedSKUs:  []string{"MISSING"},
		NotInERPSKUs:    []string{"EXTRA"},
	}, plan.Summary)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "UPD", plan.Updates[0].SKU)
	assert.Equal(t, plan.Summary.Matched, plan.Summary.Updates+plan.Summary.SkippedPolicy+plan.Summary.SkippedNoChange)
}

func TestBuildPlan_Empty(t *testing.T) {
	plan := BuildPlan(nil, nil)
	assert.Empty(t, plan.Decisions)
	assert.Empty(t, plan.Updates)
	assert.Zero(t, plan.Summary.Matched)
}

func TestBuildPlan_UnmatchedSamplesBounded(t *testing.T) {
	catalog := &Catalog{Variants: map[string]StorefrontVariant{}}
	for i := 14; i >= 0; i-- {
		sku := fmt.Sprintf("WEB-%02d", i)
		catalog.Variants[sku] = StorefrontVariant{SKU: sku, InventoryItemID: int64(i + 1)}
	}

	var stock []StockRecord
	for i := 0; i < 12; i++ {
		stock = append(stock, StockRecord{SKU: fmt.Sprintf("ERP-%02d", i), Quantity: i})
	}

	plan := BuildPlan(stock, catalog)

	assert.Equal(t, 12, plan.Summary.NotMatched)
	assert.Equal(t, 15, plan.Summary.NotInERP)
	require.Len(t, plan.Summary.NotMatchedSKUs, MaxSampleSKUs)
	require.Len(t, plan.Summary.NotInERPSKUs, MaxSampleSKUs)
	assert.Equal(t, "ERP-00", plan.Summary.NotMatchedSKUs[0])
	assert.Equal(t, "ERP-09", plan.Summary.NotMatchedSKUs[9])
	assert.Equal(t, "WEB-00", plan.Summary.NotInERPSKUs[0])
	assert.Equal(t, "WEB-09", plan.Summary.NotInERPSKUs[9])
}
