// Package handler groups the HTTP surface by domain: each subpackage owns
// one route group (auth, establishment, customers, loyalty, transactions,
// schedule, features, admin, cron).
//
// The file keeps internal/handler a valid Go package so swag can be pointed
// at it without "no Go files" warnings.
package handler
