// Package db embeds the SQL schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for the users, products, coupons, shipping address
// and order tables. Statements are idempotent (CREATE TABLE IF NOT EXISTS).
//
//go:embed migrations/001_schema.sql
var Schema string
