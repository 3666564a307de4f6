// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stitchtales/internal/models"
)

// LikeStore toggles and counts likes.
type LikeStore struct {
	db *sql.DB
}

// NewLikeStore creates a new LikeStore.
func NewLikeStore(db *sql.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Toggle flips the like of userID on postID and returns the resulting state
// and like count. Toggles of the same (post, user) pair serialise on a
// transaction-scoped advisory lock, so concurrent calls alternate cleanly
// and never trip the primary key.
func (s *LikeStore) Toggle(ctx context.Context, postID, userID uuid.UUID) (*models.LikeResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lockKey := postID.String() + ":" + userID.String()
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, fmt.Errorf("lock like: %w", err)
	}

	state := models.LikeStateUnliked
	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("remove like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		state = models.LikeStateLiked
		_, err := tx.ExecContext(ctx, `
			INSERT INTO likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("add like: %w", err)
		}
	}

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit like: %w", err)
	}
	return &models.LikeResult{State: state, LikeCount: count}, nil
}

// HasLiked reports whether userID currently likes postID.
func (s *LikeStore) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)
	`, postID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return ok, nil
}

// CountForPost returns the number of likes on a post.
func (s *LikeStore) CountForPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// CountOnAuthorPosts counts likes received across all of an author's posts.
func (s *LikeStore) CountOnAuthorPosts(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM likes l
		JOIN posts p ON p.id = l.post_id
		WHERE p.author_id = $1
	`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count author likes: %w", err)
	}
	return n, nil
}
