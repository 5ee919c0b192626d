// Package erp reads stock-of-record from the ERP (Unleashed-style API).
//
// Every request is authenticated with two headers: api-auth-id carries the API id and
// api-auth-signature carries base64(HMAC-SHA256(secret, queryString)), computed over the
// literal query string that is sent. StockOnHand is paged (200 items per page) and read
// until the Pagination envelope reports no further pages.
//
// Quantities are floored to integers; fractional on-hand quantities are not meaningful
// for storefront display. A failed page fails the whole fetch.
package erp
