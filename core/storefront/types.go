package storefront

// variant is the subset of a product variant the sync reads.
type variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	SKU               string `json:"sku"`
	InventoryItemID   int64  `json:"inventory_item_id" validate:"gt=0"`
	InventoryQuantity int    `json:"inventory_quantity"`
	InventoryPolicy   string `json:"inventory_policy" validate:"oneof=deny continue"`
}

type product struct {
	ID       int64     `json:"id" validate:"gt=0"`
	Title    string    `json:"title"`
	Variants []variant `json:"variants"`
}

// productsPage is the response body of GET /products.json.
type productsPage struct {
	Products []product `json:"products"`
}

// setInventoryRequest is the body of POST /inventory_levels/set.json.
type setInventoryRequest struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       int   `json:"available"`
}
