package erp

import "github.com/shopspring/decimal"

// stockOnHandItem is one entry of the StockOnHand Items array.
type stockOnHandItem struct {
	ProductCode string          `json:"ProductCode"`
	QtyOnHand   decimal.Decimal `json:"QtyOnHand"`
}

// pagination is the ERP list envelope's paging block.
type pagination struct {
	NumberOfItems int `json:"NumberOfItems"`
	PageSize      int `json:"PageSize"`
	PageNumber    int `json:"PageNumber"`
	NumberOfPages int `json:"NumberOfPages" validate:"gte=0"`
}

// stockOnHandPage is the response body of GET /StockOnHand.
type stockOnHandPage struct {
	Items      []stockOnHandItem `json:"Items"`
	Pagination *pagination       `json:"Pagination" validate:"required"`
}
