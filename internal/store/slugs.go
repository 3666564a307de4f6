// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"stitchtales/internal/slug"
)

// sluggedTables are the tables whose slug column is unique.
var sluggedTables = map[string]bool{
	"posts":      true,
	"categories": true,
	"tags":       true,
}

// nextFreeSlug returns base if no row in table uses it, otherwise the first
// free "base-N" with N starting at 2. The answer can go stale before the
// caller inserts; the unique index remains the final arbiter.
func nextFreeSlug(ctx context.Context, db *sql.DB, table, base string) (string, error) {
	if !sluggedTables[table] {
		return "", fmt.Errorf("next free slug: unknown table %q", table)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT slug FROM `+table+` WHERE slug = $1 OR slug LIKE $2`,
		base, base+"-%",
	)
	if err != nil {
		return "", fmt.Errorf("next free slug: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", fmt.Errorf("scan slug: %w", err)
		}
		taken[s] = true
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("next free slug: %w", err)
	}

	if !taken[base] {
		return base, nil
	}
	for n := 2; ; n++ {
		if candidate := slug.WithSuffix(base, n); !taken[candidate] {
			return candidate, nil
		}
	}
}
