// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reader's response to a post. New comments start unapproved
// and stay hidden from public listings until a moderator approves them.
type Comment struct {
	ID             uuid.UUID `json:"id"`
	PostID         uuid.UUID `json:"post_id"`
	AuthorID       uuid.UUID `json:"-"`
	Content        string    `json:"content"`
	IsApproved     bool      `json:"is_approved"`
	FlaggedReasons []string  `json:"flagged_reasons,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Virtual fields populated by joined queries.
	Author    *Author `json:"author,omitempty"`
	PostTitle string  `json:"post_title,omitempty"`
	PostSlug  string  `json:"post_slug,omitempty"`
}

// Like records that a user liked a post. (PostID, UserID) is unique.
type Like struct {
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is the outcome of a like toggle.
type LikeState string

const (
	LikeStateLiked   LikeState = "liked"
	LikeStateUnliked LikeState = "unliked"
)

// LikeResult is returned by a like toggle.
type LikeResult struct {
	State     LikeState `json:"status"`
	LikeCount int64     `json:"like_count"`
}
