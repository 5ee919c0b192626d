package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"inventory-sync/core/connector"
	"inventory-sync/core/reconcile"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

const (
	serviceName = "storefront"

	// HeaderAccessToken authenticates admin API requests.
	HeaderAccessToken = "X-Shopify-Access-Token"

	productsPath     = "/products.json"
	setInventoryPath = "/inventory_levels/set.json"
)

// Client reads the catalog of one storefront and writes its inventory levels.
type Client struct {
	cfg      Config
	http     *resty.Client
	read     *connector.Connector
	write    *connector.Connector
	validate *validator.Validate
}

// NewClient creates a storefront client. Reads go through a connector named
// "<store>.storefront" and writes through "<store>.storefront.write". Both draw
// from one request budget; clock may be nil.
func NewClient(store string, cfg Config, clock connector.Clock) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}

	c := &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(cfg.APIBaseURL()).
			SetHeader(HeaderAccessToken, cfg.AccessToken).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		validate: validator.New(),
	}
	budget := connector.NewRateLimiter(cfg.Budget(), clock)
	c.read = connector.New(cfg.ReadConnectorConfig(store+".storefront", budget, clock), c.Probe)
	c.write = connector.New(cfg.WriteConnectorConfig(store+".storefront.write", budget, clock), nil)
	return c
}

// Connectors returns the read and write connectors, in that order.
func (c *Client) Connectors() []*connector.Connector {
	return []*connector.Connector{c.read, c.write}
}

// FetchVariants reads every product page and indexes variants by SKU. Variants
// without a SKU are ignored. A SKU carried by several variants resolves to the
// last one read and is listed in Catalog.Duplicates.
func (c *Client) FetchVariants(ctx context.Context) (*reconcile.Catalog, error) {
	catalog := &reconcile.Catalog{Variants: make(map[string]reconcile.StorefrontVariant)}
	seenDuplicate := make(map[string]struct{})

	var sinceID int64
	for page := 1; ; page++ {
		var body *productsPage
		err := c.read.Execute(ctx, "fetch_products_page", func(ctx context.Context) error {
			var err error
			body, err = c.getProducts(ctx, c.cfg.PageSize, sinceID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch products page %d: %w", page, err)
		}

		if len(body.Products) == 0 {
			break
		}

		for _, p := range body.Products {
			if p.ID <= 0 {
				return nil, &connector.ValidationError{Service: serviceName, Field: "products.id", Reason: "must be positive"}
			}
			catalog.ProductCount++

			for _, v := range p.Variants {
				if v.SKU == "" {
					continue
				}
				if err := c.validate.Struct(v); err != nil {
					return nil, &connector.ValidationError{Service: serviceName, Field: "variants." + v.SKU, Reason: err.Error()}
				}

				if _, exists := catalog.Variants[v.SKU]; exists {
					if _, listed := seenDuplicate[v.SKU]; !listed {
						seenDuplicate[v.SKU] = struct{}{}
						catalog.Duplicates = append(catalog.Duplicates, v.SKU)
					}
				}

				productID := v.ProductID
				if productID == 0 {
					productID = p.ID
				}
				catalog.Variants[v.SKU] = reconcile.StorefrontVariant{
					SKU:             v.SKU,
					InventoryItemID: v.InventoryItemID,
					ProductID:       productID,
					VariantID:       v.ID,
					CurrentQuantity: v.InventoryQuantity,
					Policy:          reconcile.InventoryPolicy(v.InventoryPolicy),
				}
			}
		}

		sinceID = body.Products[len(body.Products)-1].ID
	}

	return catalog, nil
}

// SetInventory sets the available quantity of an item at the configured location.
// The call is absolute, so retrying it after an ambiguous failure is safe.
func (c *Client) SetInventory(ctx context.Context, inventoryItemID int64, quantity int) error {
	req := setInventoryRequest{
		InventoryItemID: inventoryItemID,
		LocationID:      c.cfg.LocationID,
		Available:       quantity,
	}

	return c.write.Execute(ctx, "set_inventory", func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			Post(setInventoryPath)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return &connector.HTTPError{
				Service:    serviceName,
				Operation:  "set_inventory",
				StatusCode: resp.StatusCode(),
				Body:       resp.String(),
			}
		}
		return nil
	})
}

// Probe requests a single product id to verify reachability and credentials.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"limit": "1", "fields": "id"}).
		Get(productsPath)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return &connector.HTTPError{
			Service:    serviceName,
			Operation:  "probe",
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}
	return nil
}

func (c *Client) getProducts(ctx context.Context, limit int, sinceID int64) (*productsPage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":    strconv.Itoa(limit),
			"since_id": strconv.FormatInt(sinceID, 10),
		}).
		Get(productsPath)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &connector.HTTPError{
			Service:    serviceName,
			Operation:  "list_products",
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	var body productsPage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &connector.ValidationError{Service: serviceName, Field: "body", Reason: err.Error()}
	}
	return &body, nil
}
