package sql

import "embed"

// SchemaFS contains the outlet quote archive migrations
//
//go:embed schema/*.sql
var SchemaFS embed.FS
