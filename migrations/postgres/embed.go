// Package postgres embeds the directory schema migrations.
package postgres

import "embed"

// FS contains the schema files applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
