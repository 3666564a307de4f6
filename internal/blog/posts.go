// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog implements the publishing rules of StitchTales on top of the
// store layer: post lifecycle, taxonomy, engagement, queries and author
// statistics.
package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"stitchtales/internal/content"
	"stitchtales/internal/markdown"
	"stitchtales/internal/models"
	"stitchtales/internal/slug"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

const (
	// RelatedLimit is how many related posts a detail page suggests.
	RelatedLimit = 3

	// slugAttempts bounds retries when a derived slug is taken between the
	// free-slug lookup and the insert.
	slugAttempts = 3

	coverPrefix = "covers"
)

// CatalogInvalidator is notified whenever the set of public pages may have
// changed. *cache.FeedCache satisfies it.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

// PostInput carries the author-editable fields of a post. Update replaces
// every field, so clients send the full set.
type PostInput struct {
	Title           string            `json:"title" validate:"required,max=200"`
	Slug            string            `json:"slug" validate:"omitempty,slug"`
	Content         string            `json:"content" validate:"required,notblank"`
	Excerpt         string            `json:"excerpt" validate:"max=300"`
	Status          models.PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
	CategoryID      *uuid.UUID        `json:"category_id"`
	TagIDs          []uuid.UUID       `json:"tag_ids" validate:"max=50,unique"`
	MetaDescription string            `json:"meta_description" validate:"max=160"`
	MetaKeywords    string            `json:"meta_keywords" validate:"max=255"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.MetaDescription = strings.TrimSpace(in.MetaDescription)
	in.MetaKeywords = strings.TrimSpace(in.MetaKeywords)
	if in.Status == "" {
		in.Status = models.PostStatusDraft
	}
}

// Posts manages the post lifecycle.
type Posts struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	likes      *store.LikeStore
	comments   *store.CommentStore
	blobs      storage.Blob
	catalog    CatalogInvalidator
}

// NewPosts creates the post service. catalog may be nil.
func NewPosts(posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore,
	likes *store.LikeStore, comments *store.CommentStore, blobs storage.Blob, catalog CatalogInvalidator) *Posts {
	if catalog == nil {
		catalog = noopInvalidator{}
	}
	return &Posts{
		posts:      posts,
		categories: categories,
		tags:       tags,
		likes:      likes,
		comments:   comments,
		blobs:      blobs,
		catalog:    catalog,
	}
}

// derive fills the computed fields of p from in: reading time always,
// excerpt when none was supplied.
func derive(p *models.Post, in PostInput) {
	p.Title = in.Title
	p.Content = in.Content
	p.Status = in.Status
	p.CategoryID = in.CategoryID
	p.MetaDescription = in.MetaDescription
	p.MetaKeywords = in.MetaKeywords
	p.ReadingTime = content.ReadingTime(in.Content)
	p.Excerpt = in.Excerpt
	if p.Excerpt == "" {
		p.Excerpt = content.Excerpt(in.Content)
	}
}

// checkRefs verifies that the category and tags named by in exist.
func (s *Posts) checkRefs(ctx context.Context, in PostInput) error {
	if in.CategoryID != nil {
		c, err := s.categories.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		if c == nil {
			return invalid("category_id", "Category does not exist.")
		}
	}
	missing, err := s.tags.Missing(ctx, in.TagIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return invalid("tag_ids", fmt.Sprintf("Tag %s does not exist.", missing[0]))
	}
	return nil
}

// refError maps a foreign-key violation raised by a concurrent delete of a
// referenced category or tag to a ValidationError.
func refError(err error) error {
	constraint, ok := store.ForeignKeyViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "posts_category_id_fkey":
		return invalid("category_id", "Category does not exist.")
	case "post_tags_tag_id_fkey":
		return invalid("tag_ids", "Tag does not exist.")
	}
	return err
}

// Create validates in and stores a new post owned by author. The slug is
// derived from the title unless one is given; a derived slug that is taken
// gets a numeric suffix, an explicit one yields ConflictError. The post row
// and its tags commit together or not at all.
func (s *Posts) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if author == nil {
		return nil, &PermissionError{Action: "create post"}
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	p := &models.Post{AuthorID: author.ID}
	derive(p, in)

	explicit := in.Slug != ""
	base := in.Slug
	if !explicit {
		base = derivedSlug("post", in.Title)
		if base == "" {
			return nil, invalid("title", "Title must contain at least one letter or digit.")
		}
	}

	for attempt := 0; ; attempt++ {
		p.Slug = base
		if !explicit {
			free, err := s.posts.NextFreeSlug(ctx, base)
			if err != nil {
				return nil, err
			}
			p.Slug = free
		}

		created, err := s.posts.Create(ctx, p, in.TagIDs)
		switch {
		case err == nil:
			slog.Info("post created", "post_id", created.ID, "slug", created.Slug, "author_id", author.ID)
			if created.IsPublished() {
				s.catalog.Invalidate(ctx)
			}
			return s.decorate(ctx, created)
		case errors.Is(err, store.ErrSlugTaken) && explicit:
			return nil, &ConflictError{Field: "slug", Message: "A post with this slug already exists."}
		case errors.Is(err, store.ErrSlugTaken) && attempt+1 < slugAttempts:
			continue
		case errors.Is(err, store.ErrSlugTaken):
			slog.Warn("post slug still taken after retries", "base", base, "attempts", slugAttempts)
			return nil, &ConflictError{Field: "slug", Message: "Could not find a free slug for this title; try again or set one explicitly."}
		default:
			return nil, refError(err)
		}
	}
}

// derivedSlug slugifies text. Text whose letters or digits have no Latin
// transliteration (Cyrillic, CJK) gets prefix plus a short random suffix;
// text with no letters or digits at all yields "".
func derivedSlug(prefix, text string) string {
	if s := slug.Generate(text); s != "" {
		return s
	}
	if strings.IndexFunc(text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return ""
	}
	return prefix + "-" + uuid.NewString()[:8]
}

// owned loads a post and checks that actor is its author.
func (s *Posts) owned(ctx context.Context, postID uuid.UUID, actor *models.User, action string) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.VisibleTo(actorID(actor)) {
		return nil, &NotFoundError{Resource: "post", Key: postID.String()}
	}
	if actor == nil || p.AuthorID != actor.ID {
		return nil, &PermissionError{Action: action}
	}
	return p, nil
}

// Update replaces the editable fields of a post owned by actor. Reading time
// and a blank excerpt are recomputed on every call; the slug never changes.
func (s *Posts) Update(ctx context.Context, postID uuid.UUID, actor *models.User, in PostInput) (*models.Post, error) {
	p, err := s.owned(ctx, postID, actor, "edit post")
	if err != nil {
		return nil, err
	}

	in.normalize()
	in.Slug = "" // slugs are fixed once assigned
	if err := check(in); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	wasPublished := p.IsPublished()
	derive(p, in)

	updated, err := s.posts.Update(ctx, p, in.TagIDs)
	if err != nil {
		return nil, refError(err)
	}
	if updated == nil {
		return nil, &NotFoundError{Resource: "post", Key: postID.String()}
	}

	slog.Info("post updated", "post_id", updated.ID, "slug", updated.Slug)
	if wasPublished || updated.IsPublished() {
		s.catalog.Invalidate(ctx)
	}
	return s.decorate(ctx, updated)
}

// Delete removes a post owned by actor. Comments, likes and tag links go
// with it through the schema's cascades; the cover blob is removed after.
func (s *Posts) Delete(ctx context.Context, postID uuid.UUID, actor *models.User) error {
	p, err := s.owned(ctx, postID, actor, "delete post")
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return err
	}

	slog.Info("post deleted", "post_id", p.ID, "slug", p.Slug)
	s.dropBlob(ctx, p.CoverImage)
	if p.IsPublished() {
		s.catalog.Invalidate(ctx)
	}
	return nil
}

// SetCover stores an uploaded image as the post's cover and drops the old one.
func (s *Posts) SetCover(ctx context.Context, postID uuid.UUID, actor *models.User, data []byte, contentType string) (*models.Post, error) {
	p, err := s.owned(ctx, postID, actor, "edit post")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, invalid("cover_image", "No image was submitted.")
	}
	if !storage.IsImage(contentType) {
		return nil, invalid("cover_image", "Upload a valid image (JPEG, PNG, GIF or WebP).")
	}

	handle, err := s.blobs.Store(ctx, coverPrefix, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("store cover: %w", err)
	}
	old, err := s.posts.SetCover(ctx, p.ID, &handle)
	if err != nil {
		s.dropBlob(ctx, &handle)
		return nil, err
	}
	s.dropBlob(ctx, old)
	if p.IsPublished() {
		// updated_at moved, and it is the sitemap lastmod.
		s.catalog.Invalidate(ctx)
	}

	updated, err := s.posts.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, updated)
}

// dropBlob deletes a blob best-effort; failures only leave an orphan file.
func (s *Posts) dropBlob(ctx context.Context, handle *string) {
	if handle == nil || *handle == "" {
		return
	}
	if err := s.blobs.Delete(ctx, *handle); err != nil {
		slog.Warn("blob delete failed", "handle", *handle, "error", err)
	}
}

// RecordView adds exactly one view to a post and returns it with the new
// count. Each call counts; there is no de-duplication.
func (s *Posts) RecordView(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	views, err := s.posts.IncrementViews(ctx, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "post", Key: postID.String()}
	}
	if err != nil {
		return nil, err
	}
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Resource: "post", Key: postID.String()}
	}
	p.ViewCount = views
	return p, nil
}

// BySlug returns a post visible to viewer (nil for anonymous). Drafts are
// not found for anyone but their author.
func (s *Posts) BySlug(ctx context.Context, postSlug string, viewer *models.User) (*models.Post, error) {
	p, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.VisibleTo(actorID(viewer)) {
		return nil, &NotFoundError{Resource: "post", Key: postSlug}
	}
	return p, nil
}

// Detail loads the full reader view of a post. Reading a published post
// records a view; an author previewing a draft does not.
func (s *Posts) Detail(ctx context.Context, postSlug string, viewer *models.User) (*models.PostDetail, error) {
	p, err := s.BySlug(ctx, postSlug, viewer)
	if err != nil {
		return nil, err
	}
	if p.IsPublished() {
		if p, err = s.RecordView(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	p, err = s.decorate(ctx, p)
	if err != nil {
		return nil, err
	}

	html, err := markdown.ToHTML(p.Content)
	if err != nil {
		return nil, fmt.Errorf("render post: %w", err)
	}

	comments, err := s.comments.ListApproved(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	liked := false
	if viewer != nil {
		if liked, err = s.likes.HasLiked(ctx, p.ID, viewer.ID); err != nil {
			return nil, err
		}
	}

	return &models.PostDetail{Post: *p, ContentHTML: html, Comments: comments, IsLiked: liked}, nil
}

// Related returns up to RelatedLimit other published posts in the same category.
func (s *Posts) Related(ctx context.Context, post *models.Post) ([]models.Post, error) {
	items, err := s.posts.Related(ctx, post, RelatedLimit)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(ctx, items)
}

// decorate fills tags and the cover URL of a single post.
func (s *Posts) decorate(ctx context.Context, p *models.Post) (*models.Post, error) {
	items, err := s.decorateAll(ctx, []models.Post{*p})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// decorateAll fills tags and cover URLs for a list of posts with one tag query.
func (s *Posts) decorateAll(ctx context.Context, items []models.Post) ([]models.Post, error) {
	return decoratePosts(ctx, s.posts, s.blobs, items)
}

func decoratePosts(ctx context.Context, posts *store.PostStore, blobs storage.Blob, items []models.Post) ([]models.Post, error) {
	if len(items) == 0 {
		return items, nil
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	tags, err := posts.TagsForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = tags[items[i].ID]
		if items[i].Tags == nil {
			items[i].Tags = []models.Tag{}
		}
		if items[i].CoverImage != nil && blobs != nil {
			items[i].CoverImageURL = blobs.URL(*items[i].CoverImage)
		}
	}
	return items, nil
}

// actorID returns the user's ID, or uuid.Nil for anonymous callers.
func actorID(u *models.User) uuid.UUID {
	if u == nil {
		return uuid.Nil
	}
	return u.ID
}
