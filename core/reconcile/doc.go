// Package reconcile decides, for every ERP SKU, whether a storefront listing
// must be corrected, and applies the corrections.
//
// A run has three phases:
//
//  1. Fetch. The ERP stock and the storefront catalog are read concurrently.
//     Either fetch failing aborts the run before any write.
//  2. Classify. Each ERP SKU gets exactly one Action: not_matched,
//     skip_policy, skip_nochange or update. Variants whose inventory policy
//     allows overselling are never written.
//  3. Apply. Updates are written one at a time, in ERP order. A failed write
//     is recorded and the run continues with the next SKU.
//
// Writes always set an absolute quantity, so repeating a run against
// unchanged sources issues no writes at all.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(erpClient, storefrontClient, logger)
//	state, err := engine.Run(ctx, reconcile.Options{Store: "teelixir", DryRun: true})
//	if err != nil {
//	    var fetchErr *reconcile.FetchError
//	    if errors.As(err, &fetchErr) {
//	        // nothing was written
//	    }
//	}
//	fmt.Println(state.Result.Updated)
package reconcile
