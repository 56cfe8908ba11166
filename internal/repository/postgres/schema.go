package postgres

import _ "embed"

// Schema is the idempotent DDL for users, wallets and transactions
//
//go:embed schema.sql
var Schema string
