package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"inventory-sync/core/config"
	"inventory-sync/core/reconcile"
	"inventory-sync/feature/inventory"

	"go.uber.org/zap"
)

// Looks up one SKU on both sides of a store and prints the decision a sync
// would make for it. Nothing is written.
//
//	go run ./cmd/debug_sku <store> <sku>
func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: debug_sku <store> <sku>")
	}
	store, sku := os.Args[1], os.Args[2]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	registry := inventory.NewRegistry(cfg, nil, zap.NewNop())
	p, err := registry.Pipeline(store)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	fmt.Println("=== TEST 1: ERP Stock ===")
	stock, err := p.ERP.FetchStock(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total ERP records loaded: %d\n", len(stock))

	var match []reconcile.StockRecord
	for _, r := range stock {
		if r.SKU == sku {
			match = append(match, r)
			fmt.Printf("FOUND in ERP: sku=%s, qty=%d\n", r.SKU, r.Quantity)
		}
	}
	if len(match) == 0 {
		fmt.Println("NOT FOUND in ERP")
	}

	fmt.Println("\n=== TEST 2: Storefront Catalog ===")
	catalog, err := p.Storefront.FetchVariants(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Products: %d, variants with SKU: %d\n", catalog.ProductCount, len(catalog.Variants))

	if v, ok := catalog.Variants[sku]; ok {
		fmt.Printf("FOUND on storefront: item=%d, product=%d, variant=%d, qty=%d, policy=%s\n",
			v.InventoryItemID, v.ProductID, v.VariantID, v.CurrentQuantity, v.Policy)
	} else {
		fmt.Println("NOT FOUND on storefront")
	}
	for _, d := range catalog.Duplicates {
		if d == sku {
			fmt.Println("WARNING: SKU is carried by more than one variant, the last one read is used")
		}
	}

	fmt.Println("\n=== TEST 3: Decision ===")
	for _, d := range reconcile.Classify(match, catalog) {
		fmt.Printf("action=%s from=%d to=%d\n", d.Action, d.FromQty, d.ToQty)
	}
}
