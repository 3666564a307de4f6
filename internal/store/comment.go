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
	"github.com/jackc/pgx/v5/pgtype"

	"stitchtales/internal/models"
)

// commentSelect joins the commenter and the parent post so listings can be
// rendered without extra lookups.
const commentSelect = `
	SELECT cm.id, cm.post_id, cm.author_id, cm.content, cm.is_approved,
	       cm.flagged_reasons, cm.created_at,
	       u.username, u.display_name, p.title, p.slug
	FROM comments cm
	JOIN users u ON u.id = cm.author_id
	JOIN posts p ON p.id = cm.post_id`

// pgTypes scans Postgres arrays into Go slices through database/sql.
var pgTypes = pgtype.NewMap()

// CommentStore handles comment persistence and moderation queries.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(scanner interface{ Scan(...any) error }) (*models.Comment, error) {
	var (
		c       models.Comment
		a       models.Author
		reasons []string
	)
	err := scanner.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsApproved,
		pgTypes.SQLScanner(&reasons), &c.CreatedAt,
		&a.Username, &a.DisplayName, &c.PostTitle, &c.PostSlug,
	)
	if err != nil {
		return nil, err
	}
	a.ID = c.AuthorID
	c.Author = &a
	c.FlaggedReasons = reasons
	return &c, nil
}

func (s *CommentStore) query(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create stores a new, unapproved comment and returns it with author details.
func (s *CommentStore) Create(ctx context.Context, postID, authorID uuid.UUID, content string, flagged []string) (*models.Comment, error) {
	if flagged == nil {
		flagged = []string{}
	}
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, content, flagged_reasons)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, postID, authorID, content, flagged).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.FindByID(ctx, id)
}

// FindByID retrieves a comment by ID. Returns nil if not found.
func (s *CommentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE cm.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

// ListApproved returns a post's approved comments, oldest first.
func (s *CommentStore) ListApproved(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	items, err := s.query(ctx, commentSelect+`
		WHERE cm.post_id = $1 AND cm.is_approved
		ORDER BY cm.created_at ASC, cm.id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	return items, nil
}

// ListPending returns every unapproved comment, oldest first.
func (s *CommentStore) ListPending(ctx context.Context) ([]models.Comment, error) {
	items, err := s.query(ctx, commentSelect+`
		WHERE NOT cm.is_approved
		ORDER BY cm.created_at ASC, cm.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}
	return items, nil
}

// RecentOnAuthorPosts returns the newest comments left on any post by
// authorID, regardless of approval state.
func (s *CommentStore) RecentOnAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Comment, error) {
	items, err := s.query(ctx, commentSelect+`
		WHERE p.author_id = $1
		ORDER BY cm.created_at DESC, cm.id DESC
		LIMIT $2`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent comments: %w", err)
	}
	return items, nil
}

// CountOnAuthorPosts counts comments of every approval state on an author's posts.
func (s *CommentStore) CountOnAuthorPosts(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments cm
		JOIN posts p ON p.id = cm.post_id
		WHERE p.author_id = $1
	`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count author comments: %w", err)
	}
	return n, nil
}

// Approve marks a comment approved. Reports whether the comment exists.
func (s *CommentStore) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET is_approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("approve comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes a comment. Reports whether the comment existed.
func (s *CommentStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
