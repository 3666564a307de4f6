package blog

import (
	"context"

	"github.com/google/uuid"

	"stitchtales/internal/models"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

const (
	recentCommentsLimit = 5
	topPostsLimit       = 5
)

// Dashboard aggregates an author's statistics.
type Dashboard struct {
	posts    *store.PostStore
	comments *store.CommentStore
	likes    *store.LikeStore
	blobs    storage.Blob
}

// NewDashboard creates the dashboard service.
func NewDashboard(posts *store.PostStore, comments *store.CommentStore, likes *store.LikeStore, blobs storage.Blob) *Dashboard {
	return &Dashboard{posts: posts, comments: comments, likes: likes, blobs: blobs}
}

// AuthorStats computes the dashboard of authorID. Comment totals and the
// recent comments cover every approval state. An author without posts gets
// zeros and empty lists.
func (d *Dashboard) AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	stats := &models.AuthorStats{}

	var err error
	stats.TotalPosts, stats.Published, stats.Draft, stats.TotalViews, err = d.posts.AuthorCounts(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if stats.TotalComments, err = d.comments.CountOnAuthorPosts(ctx, authorID); err != nil {
		return nil, err
	}
	if stats.TotalLikes, err = d.likes.CountOnAuthorPosts(ctx, authorID); err != nil {
		return nil, err
	}
	if stats.RecentComments, err = d.comments.RecentOnAuthorPosts(ctx, authorID, recentCommentsLimit); err != nil {
		return nil, err
	}

	top, err := d.posts.TopByViews(ctx, authorID, topPostsLimit)
	if err != nil {
		return nil, err
	}
	if stats.TopPosts, err = d.summaries(ctx, top); err != nil {
		return nil, err
	}

	all, err := d.posts.ListByAuthor(ctx, authorID, true)
	if err != nil {
		return nil, err
	}
	if stats.Posts, err = d.summaries(ctx, all); err != nil {
		return nil, err
	}

	if stats.RecentComments == nil {
		stats.RecentComments = []models.Comment{}
	}
	return stats, nil
}

func (d *Dashboard) summaries(ctx context.Context, items []models.Post) ([]models.Post, error) {
	items, err := decoratePosts(ctx, d.posts, d.blobs, items)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []models.Post{}, nil
	}
	for i := range items {
		items[i].Content = ""
	}
	return items, nil
}
