// Package storefront reads the product catalog of a Shopify-style admin API and
// sets absolute inventory levels on it.
//
// The catalog is read with since_id cursor pagination, 250 products per page, until
// an empty page is returned. Reads and writes go through separate connectors so
// writes can be spaced further apart than page reads; each applies the configured
// request budget per window.
package storefront
