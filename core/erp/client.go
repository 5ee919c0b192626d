package erp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"inventory-sync/core/connector"
	"inventory-sync/core/reconcile"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

const (
	serviceName = "erp"

	// HeaderAuthID carries the API id.
	HeaderAuthID = "api-auth-id"
	// HeaderAuthSignature carries the base64 HMAC-SHA256 of the query string.
	HeaderAuthSignature = "api-auth-signature"

	stockOnHandPath = "/StockOnHand"
)

// Client fetches stock-of-record from the ERP.
type Client struct {
	cfg      Config
	http     *resty.Client
	conn     *connector.Connector
	validate *validator.Validate
}

// NewClient creates an ERP client. All requests go through a connector named
// "<store>.erp" built from cfg; clock may be nil.
func NewClient(store string, cfg Config, clock connector.Clock) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}

	c := &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		validate: validator.New(),
	}
	c.conn = connector.New(cfg.ConnectorConfig(store+".erp", clock), c.Probe)
	return c
}

// Connector returns the connector wrapping this client's calls.
func (c *Client) Connector() *connector.Connector {
	return c.conn
}

// Sign returns base64(HMAC-SHA256(key, queryString)).
func Sign(queryString, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(queryString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// FetchStock reads every page of StockOnHand and returns one record per item.
// Any failed page aborts the whole fetch: a truncated stock map is never returned.
func (c *Client) FetchStock(ctx context.Context) ([]reconcile.StockRecord, error) {
	var records []reconcile.StockRecord

	for page := 1; ; page++ {
		var body *stockOnHandPage
		err := c.conn.Execute(ctx, "fetch_stock_page", func(ctx context.Context) error {
			var err error
			body, err = c.getPage(ctx, c.cfg.PageSize, page)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch stock page %d: %w", page, err)
		}

		for _, item := range body.Items {
			record, ok, err := c.toRecord(item)
			if err != nil {
				return nil, err
			}
			if ok {
				records = append(records, record)
			}
		}

		if page >= body.Pagination.NumberOfPages {
			break
		}
	}

	return records, nil
}

// Probe requests a single stock item to verify reachability and credentials.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.getPage(ctx, 1, 1)
	return err
}

// getPage performs one signed request. The signature covers the exact query
// string that is sent.
func (c *Client) getPage(ctx context.Context, pageSize, page int) (*stockOnHandPage, error) {
	queryString := fmt.Sprintf("pageSize=%d&page=%d", pageSize, page)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderAuthID, c.cfg.APIID).
		SetHeader(HeaderAuthSignature, Sign(queryString, c.cfg.APIKey)).
		Get(stockOnHandPath + "?" + queryString)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &connector.HTTPError{
			Service:    serviceName,
			Operation:  "stock_on_hand",
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	var body stockOnHandPage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &connector.ValidationError{Service: serviceName, Field: "body", Reason: err.Error()}
	}
	if err := c.validate.Struct(body); err != nil {
		return nil, &connector.ValidationError{Service: serviceName, Field: "Pagination", Reason: err.Error()}
	}

	return &body, nil
}

// toRecord converts a raw item into a StockRecord. Items without a product code
// cannot be joined to a SKU and are dropped (ok=false).
func (c *Client) toRecord(item stockOnHandItem) (reconcile.StockRecord, bool, error) {
	code := item.ProductCode
	if strings.TrimSpace(code) == "" {
		return reconcile.StockRecord{}, false, nil
	}

	qty := item.QtyOnHand.Floor().IntPart()
	if qty < 0 {
		qty = 0
	}

	record := reconcile.StockRecord{SKU: code, Quantity: int(qty)}
	if err := c.validate.Struct(record); err != nil {
		return reconcile.StockRecord{}, false, &connector.ValidationError{Service: serviceName, Field: "Items." + code, Reason: err.Error()}
	}
	return record, true, nil
}
