// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CatalogKind identifies what a catalog entry points at.
type CatalogKind string

const (
	CatalogPost     CatalogKind = "post"
	CatalogCategory CatalogKind = "category"
	CatalogTag      CatalogKind = "tag"
)

// CatalogEntry is one publicly reachable page for the sitemap.
type CatalogEntry struct {
	Kind    CatalogKind
	Slug    string
	LastMod *time.Time // posts only
}

// CatalogStore enumerates the public pages of the site.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Entries lists published posts (newest edit first), then categories and
// tags by slug. Drafts never appear.
func (s *CatalogStore) Entries(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, slug, lastmod FROM (
			SELECT 'post' AS kind, slug, updated_at AS lastmod, 0 AS grp
			FROM posts WHERE status = 'published'
			UNION ALL
			SELECT 'category', slug, NULL, 1 FROM categories
			UNION ALL
			SELECT 'tag', slug, NULL, 2 FROM tags
		) e
		ORDER BY grp, lastmod DESC NULLS LAST, slug
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		var lastmod sql.NullTime
		if err := rows.Scan(&e.Kind, &e.Slug, &lastmod); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if lastmod.Valid {
			t := lastmod.Time
			e.LastMod = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
