// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"stitchtales/internal/models"
)

// ErrTagSlugTaken is returned when a tag slug is already in use.
var ErrTagSlugTaken = errors.New("tag slug already in use")

// TagStore manages tags in the database.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(scanner interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := scanner.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tags ordered by name, with published post counts.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, COUNT(p.id)
		FROM tags t
		LEFT JOIN post_tags pt ON pt.tag_id = t.id
		LEFT JOIN posts p ON p.id = pt.post_id AND p.status = 'published'
		GROUP BY t.id
		ORDER BY t.name, t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// FindByID retrieves a tag by ID. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// Missing returns the subset of ids that do not name an existing tag.
func (s *TagStore) Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT want.id FROM unnest($1::uuid[]) AS want(id)
		WHERE NOT EXISTS (SELECT 1 FROM tags t WHERE t.id = want.id)
	`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("check tags: %w", err)
	}
	defer rows.Close()

	var missing []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tag id: %w", err)
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// NextFreeSlug returns base or the first unused "base-N" among tags.
func (s *TagStore) NextFreeSlug(ctx context.Context, base string) (string, error) {
	return nextFreeSlug(ctx, s.db, "tags", base)
}

// Create inserts a new tag and returns it.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	result, err := scanTag(s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug
	`, t.Name, t.Slug))
	if err != nil {
		if _, ok := UniqueViolation(err); ok {
			return nil, ErrTagSlugTaken
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return result, nil
}

// Update renames a tag. Returns nil if the tag does not exist.
func (s *TagStore) Update(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	result, err := scanTag(s.db.QueryRowContext(ctx, `
		UPDATE tags SET name = $1, slug = $2 WHERE id = $3
		RETURNING id, name, slug
	`, t.Name, t.Slug, t.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if _, ok := UniqueViolation(err); ok {
			return nil, ErrTagSlugTaken
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return result, nil
}

// Delete removes a tag. Posts keep existing; only their association with the
// tag goes (post_tags ON DELETE CASCADE). Reports whether a row was removed.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
