package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/erp"
	"inventory-sync/core/lock"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/runlog"
	"inventory-sync/core/storefront"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStock struct {
	records []reconcile.StockRecord
	err     error
}

func (f *fakeStock) FetchStock(ctx context.Context) ([]reconcile.StockRecord, error) {
	return f.records, f.err
}

type fakeStorefront struct {
	mu       sync.Mutex
	variants map[string]reconcile.StorefrontVariant
	failFor  map[int64]error
	writes   int
}

func (f *fakeStorefront) FetchVariants(ctx context.Context) (*reconcile.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[string]reconcile.StorefrontVariant, len(f.variants))
	for k, v := range f.variants {
		copied[k] = v
	}
	return &reconcile.Catalog{Variants: copied, ProductCount: len(copied)}, nil
}

func (f *fakeStorefront) SetInventory(ctx context.Context, id int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return f.failFor[id]
}

// runners maps store names to runners, like Registry does.
type runners map[string]Runner

func (r runners) Runner(store string) (Runner, error) {
	if run, ok := r[store]; ok {
		return run, nil
	}
	return nil, &config.ConfigurationError{Store: store, Err: config.ErrUnknownStore}
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []*reconcile.RunState
	err   error
}

func (a *fakeArchive) Save(ctx context.Context, state *reconcile.RunState) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, state)
	return "snapshots/" + state.RunID + ".json", a.err
}

type env struct {
	app        *fiber.App
	storefront *fakeStorefront
	stock      *fakeStock
	runs       *runlog.Store
	locker     *lock.MemoryLocker
	archive    *fakeArchive
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	runs := runlog.NewStore(db, nil)
	require.NoError(t, runs.Migrate(context.Background()))

	storefront := &fakeStorefront{
		variants: map[string]reconcile.StorefrontVariant{
			"SKU-1": {SKU: "SKU-1", InventoryItemID: 1, CurrentQuantity: 5, Policy: reconcile.PolicyDeny},
			"SKU-2": {SKU: "SKU-2", InventoryItemID: 2, CurrentQuantity: 7, Policy: reconcile.PolicyDeny},
			"SKU-3": {SKU: "SKU-3", InventoryItemID: 3, CurrentQuantity: 0, Policy: reconcile.PolicyContinue},
			"SKU-5": {SKU: "SKU-5", InventoryItemID: 5, CurrentQuantity: 1, Policy: reconcile.PolicyDeny},
		},
		failFor: map[int64]error{},
	}
	stock := &fakeStock{records: []reconcile.StockRecord{
		{SKU: "SKU-1", Quantity: 10},
		{SKU: "SKU-2", Quantity: 7},
		{SKU: "SKU-3", Quantity: 3},
		{SKU: "SKU-4", Quantity: 2},
		{SKU: "SKU-5", Quantity: 4},
	}}

	locker := lock.NewMemoryLocker()
	archive := &fakeArchive{}
	svc := NewService(
		runners{"teelixir": reconcile.NewEngine(stock, storefront, nil)},
		runs, locker, archive,
		Options{DefaultStore: "teelixir", LockTTL: time.Minute},
		nil,
	)

	app := fiber.New()
	feature := NewFeature(svc, []string{"teelixir"})
	require.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))

	return &env{app: app, storefront: storefront, stock: stock, runs: runs, locker: locker, archive: archive}
}

func (e *env) post(t *testing.T, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/sync", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestHandleSync_Live(t *testing.T) {
	e := newEnv(t)

	status, body := e.post(t, `{"store":"teelixir"}`)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "teelixir", body["store"])
	assert.Equal(t, "success", body["status"])
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 5, stats["erpCount"])
	assert.EqualValues(t, 4, stats["matched"])
	assert.EqualValues(t, 2, stats["updated"])
	assert.EqualValues(t, 2, stats["skipped"])
	assert.EqualValues(t, 0, stats["errors"])
	assert.EqualValues(t, 1, body["notMatched"])
	assert.Equal(t, 2, e.storefront.writes)

	rows, err := e.runs.Recent(context.Background(), "teelixir", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "success", rows[0].Status)
	assert.Equal(t, 4, rows[0].ItemsProcessed)

	require.Len(t, e.archive.saved, 1)
	assert.Equal(t, body["runId"], e.archive.saved[0].RunID)
}

func TestHandleSync_DefaultStoreAndDryRun(t *testing.T) {
	e := newEnv(t)

	status, body := e.post(t, `{"dryRun":true}`)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "teelixir", body["store"])
	assert.Equal(t, true, body["dryRun"])
	assert.EqualValues(t, 2, body["stats"].(map[string]any)["updated"])
	assert.Zero(t, e.storefront.writes)

	rows, err := e.runs.Recent(context.Background(), "teelixir", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].DryRun)
}

func TestHandleSync_EmptyBody(t *testing.T) {
	e := newEnv(t)

	resp, err := e.app.Test(httptest.NewRequest("POST", "/sync", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleSync_PartialWriteFailure(t *testing.T) {
	e := newEnv(t)
	e.storefront.failFor[5] = errors.New("storefront API error 422: invalid")

	status, body := e.post(t, `{"store":"teelixir"}`)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "partial", body["status"])
	assert.EqualValues(t, 1, body["stats"].(map[string]any)["errors"])
	assert.Equal(t, []any{"SKU-5: storefront API error 422: invalid"}, body["errorDetails"])

	rows, err := e.runs.Recent(context.Background(), "teelixir", 5)
	require.NoError(t, err)
	assert.Equal(t, "partial", rows[0].Status)
}

func TestHandleSync_FetchFailure(t *testing.T) {
	e := newEnv(t)
	e.stock.err = errors.New("erp API error 403: bad signature")

	status, body := e.post(t, `{"store":"teelixir"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "bad signature")
	assert.Zero(t, e.storefront.writes)

	rows, err := e.runs.Recent(context.Background(), "teelixir", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "error", rows[0].Status)
	assert.Contains(t, rows[0].ErrorDetails[0], "bad signature")

	// The failed run is archived too.
	require.Len(t, e.archive.saved, 1)
	assert.Equal(t, reconcile.PhaseFetchFailed, e.archive.saved[0].Phase)
}

func TestHandleSync_UnknownStore(t *testing.T) {
	e := newEnv(t)

	status, body := e.post(t, `{"store":"acme"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown store")

	rows, err := e.runs.Recent(context.Background(), "acme", 5)
	require.NoError(t, err)
	assert.Empty(t, rows, "configuration errors are rejected before a run starts")
}

func TestHandleSync_BadBody(t *testing.T) {
	e := newEnv(t)

	status, _ := e.post(t, `{"store":`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = e.post(t, `{"store":"`+strings.Repeat("x", 65)+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleSync_Locked(t *testing.T) {
	e := newEnv(t)

	ok, err := e.locker.Acquire(context.Background(), lock.Key("teelixir"), "other-run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	status, body := e.post(t, `{"store":"teelixir"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "already in progress")
	assert.Zero(t, e.storefront.writes)
}

func TestHandleSync_ReleasesLock(t *testing.T) {
	e := newEnv(t)

	status, _ := e.post(t, `{"store":"teelixir","dryRun":true}`)
	require.Equal(t, fiber.StatusOK, status)

	ok, err := e.locker.Acquire(context.Background(), lock.Key("teelixir"), "next-run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHandleInfo(t *testing.T) {
	e := newEnv(t)

	resp, err := e.app.Test(httptest.NewRequest("GET", "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "unleashed-inventory-sync", body["job"])
	assert.Equal(t, []any{"teelixir"}, body["stores"])
}

func TestHandleRecentRuns(t *testing.T) {
	e := newEnv(t)

	for i := 0; i < 3; i++ {
		status, _ := e.post(t, `{"dryRun":true}`)
		require.Equal(t, fiber.StatusOK, status)
	}

	resp, err := e.app.Test(httptest.NewRequest("GET", "/sync/runs?store=teelixir&limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Store string              `json:"store"`
		Runs  []runlog.CronJobLog `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "teelixir", body.Store)
	assert.Len(t, body.Runs, 2)
}

func TestService_ArchiveFailureDoesNotFailRun(t *testing.T) {
	e := newEnv(t)
	e.archive.err = errors.New("bucket unreachable")

	status, body := e.post(t, `{"store":"teelixir","dryRun":true}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestService_RunLogFailureDoesNotFailRun(t *testing.T) {
	stock := &fakeStock{records: []reconcile.StockRecord{{SKU: "A", Quantity: 1}}}
	storefront := &fakeStorefront{variants: map[string]reconcile.StorefrontVariant{
		"A": {SKU: "A", InventoryItemID: 1, CurrentQuantity: 0, Policy: reconcile.PolicyDeny},
	}}

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	// No migration: every insert fails.
	svc := NewService(runners{"elevate": reconcile.NewEngine(stock, storefront, nil)},
		runlog.NewStore(db, nil), nil, nil, Options{DefaultStore: "elevate"}, nil)

	state, err := svc.Sync(context.Background(), SyncRequest{Store: "elevate"})
	require.NoError(t, err)
	assert.Equal(t, 1, state.Result.Updated)
}

func TestRegistry(t *testing.T) {
	cfg := &config.Config{
		Sync: config.SyncConfig{Stores: "teelixir,elevate"},
		Stores: map[string]config.StoreConfig{
			"teelixir": validStoreConfig(),
		},
	}

	r := NewRegistry(cfg, nil, zapNop())
	assert.Equal(t, []string{"teelixir", "elevate"}, r.Stores())

	p, err := r.Pipeline("teelixir")
	require.NoError(t, err)
	assert.Len(t, p.Connectors(), 3)
	assert.Len(t, r.Pipelines(), 1)

	_, err = r.Runner("elevate")
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "elevate", cfgErr.Store)

	_, err = r.Runner("acme")
	assert.ErrorIs(t, err, config.ErrUnknownStore)
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	sc := validStoreConfig()
	sc.ERP.APIKey = ""

	_, err := NewPipeline("teelixir", sc, nil, zapNop())
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(err))
}

func validStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		ERP: erp.Config{APIID: "id", APIKey: "key"},
		Storefront: storefront.Config{
			ShopDomain:  "teelixir-au.myshopify.com",
			AccessToken: "shpat_x",
			LocationID:  78624784659,
		},
	}
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func TestHandleSync_StoreNameNormalised(t *testing.T) {
	e := newEnv(t)

	status, body := e.post(t, `{"store":" Teelixir ","dryRun":true}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "teelixir", body["store"])
}

// slowRunner holds a run open for delay and records how many runs overlap.
type slowRunner struct {
	delay  time.Duration
	mu     sync.Mutex
	active int
	peak   int
	check  func(ctx context.Context, opts reconcile.Options)
}

func (r *slowRunner) Run(ctx context.Context, opts reconcile.Options) (*reconcile.RunState, error) {
	r.mu.Lock()
	r.active++
	r.peak = max(r.peak, r.active)
	r.mu.Unlock()

	if r.check != nil {
		r.check(ctx, opts)
	}
	time.Sleep(r.delay)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	now := time.Now()
	return &reconcile.RunState{
		RunID: opts.RunID, Store: opts.Store, DryRun: opts.DryRun,
		Phase: reconcile.PhaseWriteComplete, Status: reconcile.StatusSuccess,
		StartedAt: now, FinishedAt: now, Result: &reconcile.RunResult{DryRun: opts.DryRun},
	}, nil
}

func TestService_LockHeldForRunsLongerThanTTL(t *testing.T) {
	runner := &slowRunner{delay: 300 * time.Millisecond}
	svc := NewService(runners{"teelixir": runner}, nil, lock.NewMemoryLocker(), nil,
		Options{DefaultStore: "teelixir", LockTTL: 100 * time.Millisecond}, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background(), SyncRequest{Store: "teelixir"})
		firstDone <- err
	}()

	time.Sleep(150 * time.Millisecond)
	_, err := svc.Sync(context.Background(), SyncRequest{Store: "teelixir"})
	assert.ErrorIs(t, err, lock.ErrLocked, "the first run still holds the store")

	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, runner.peak)

	// Released once the first run is done.
	_, err = svc.Sync(context.Background(), SyncRequest{Store: "teelixir"})
	assert.NoError(t, err)
}

func TestService_LockOwnedByRunID(t *testing.T) {
	locker := lock.NewMemoryLocker()
	runner := &slowRunner{}
	runner.check = func(ctx context.Context, opts reconcile.Options) {
		require.NotEmpty(t, opts.RunID)
		ok, err := locker.Refresh(ctx, lock.Key(opts.Store), opts.RunID, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok, "the lock owner is the run id")
	}
	svc := NewService(runners{"elevate": runner}, nil, locker, nil, Options{DefaultStore: "elevate"}, nil)

	state, err := svc.Sync(context.Background(), SyncRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, state.RunID)
}
