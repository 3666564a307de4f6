// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article. Slug, ReadingTime and Excerpt are derived on save
// when left blank; ViewCount only ever grows.
type Post struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	AuthorID        uuid.UUID  `json:"author_id"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	CoverImage      *string    `json:"-"`
	Content         string     `json:"content,omitempty"`
	Excerpt         string     `json:"excerpt"`
	Status          PostStatus `json:"status"`
	ViewCount       int64      `json:"view_count"`
	ReadingTime     int        `json:"reading_time"`
	MetaDescription string     `json:"meta_description,omitempty"`
	MetaKeywords    string     `json:"meta_keywords,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Virtual fields populated by store and service methods.
	Author        *Author   `json:"author,omitempty"`
	Category      *Category `json:"category,omitempty"`
	Tags          []Tag     `json:"tags,omitempty"`
	CoverImageURL string    `json:"cover_image,omitempty"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// VisibleTo reports whether the post can be read by the given user.
// Published posts are public; drafts are visible only to their author.
func (p *Post) VisibleTo(userID uuid.UUID) bool {
	return p.IsPublished() || (userID != uuid.Nil && userID == p.AuthorID)
}

// PostDetail is the full representation of a single post for readers.
type PostDetail struct {
	Post
	ContentHTML string    `json:"content_html"`
	Comments    []Comment `json:"comments"`
	IsLiked     bool      `json:"is_liked"`
}
