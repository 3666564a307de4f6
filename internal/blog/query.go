package blog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/models"
	"stitchtales/internal/pagination"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

// Filter narrows a published listing. Empty fields match everything.
type Filter struct {
	CategorySlug string
	TagSlug      string
	Author       string // username
	Search       string
	Order        store.PostOrder
	pagination.Paginate
}

// ParseOrder maps an ordering parameter to a PostOrder. Field names
// (created_at, view_count, title) take a leading "-" for descending order;
// the short names newest, oldest and views are accepted too. Empty or
// unknown values yield OrderNewest.
func ParseOrder(s string) store.PostOrder {
	switch strings.TrimSpace(s) {
	case "oldest", "created_at":
		return store.OrderOldest
	case "views", "-views", "-view_count":
		return store.OrderViews
	case "view_count":
		return store.OrderLeastViews
	case "title":
		return store.OrderTitle
	case "-title":
		return store.OrderTitleDesc
	default:
		return store.OrderNewest
	}
}

// Query serves read-only post listings.
type Query struct {
	posts *store.PostStore
	blobs storage.Blob
}

// NewQuery creates the listing service.
func NewQuery(posts *store.PostStore, blobs storage.Blob) *Query {
	return &Query{posts: posts, blobs: blobs}
}

// ListPublished returns one page of published posts matching f.
func (q *Query) ListPublished(ctx context.Context, f Filter) (*pagination.Page[models.Post], error) {
	p := pagination.Normalize(f.Page, f.Limit)
	items, total, err := q.posts.ListPublished(ctx, store.PostFilter{
		CategorySlug: f.CategorySlug,
		TagSlug:      f.TagSlug,
		Author:       f.Author,
		Search:       f.Search,
		Order:        f.Order,
		Limit:        p.Limit,
		Offset:       p.Offset(),
	})
	if err != nil {
		return nil, err
	}
	if items, err = q.summaries(ctx, items); err != nil {
		return nil, err
	}
	return pagination.Make(items, p, total), nil
}

// ListByAuthor returns an author's posts, newest first. Drafts are included
// only when the viewer is the author.
func (q *Query) ListByAuthor(ctx context.Context, authorID uuid.UUID, viewer *models.User) ([]models.Post, error) {
	items, err := q.posts.ListByAuthor(ctx, authorID, actorID(viewer) == authorID)
	if err != nil {
		return nil, err
	}
	return q.summaries(ctx, items)
}

// summaries decorates listed posts and drops their bodies; listings carry
// the excerpt only.
func (q *Query) summaries(ctx context.Context, items []models.Post) ([]models.Post, error) {
	items, err := decoratePosts(ctx, q.posts, q.blobs, items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Content = ""
	}
	if items == nil {
		items = []models.Post{}
	}
	return items, nil
}
