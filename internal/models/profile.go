// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the public, optional details of a user. One per user,
// created on first access.
type UserProfile struct {
	UserID    uuid.UUID `json:"user_id"`
	Bio       string    `json:"bio"`
	Avatar    *string   `json:"-"`
	Website   string    `json:"website"`
	Instagram string    `json:"instagram"`
	Pinterest string    `json:"pinterest"`
	CreatedAt time.Time `json:"created_at"`

	AvatarURL string `json:"avatar,omitempty"`
}

// AuthorStats aggregates an author's posts and the engagement they received.
type AuthorStats struct {
	TotalPosts     int64     `json:"total_posts"`
	Published      int64     `json:"published_posts"`
	Draft          int64     `json:"draft_posts"`
	TotalViews     int64     `json:"total_views"`
	TotalComments  int64     `json:"total_comments"`
	TotalLikes     int64     `json:"total_likes"`
	RecentComments []Comment `json:"recent_comments"`
	TopPosts       []Post    `json:"top_posts"`
	Posts          []Post    `json:"posts"`
}
