// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/models"
)

// ErrSlugTaken is returned by Create when the post slug is already in use.
var ErrSlugTaken = errors.New("slug already in use")

// postSelect is the shared SELECT for posts with author, category and
// engagement counts. Comment counts include approved comments only.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.author_id, p.category_id, p.cover_image,
	       p.content, p.excerpt, p.status, p.view_count, p.reading_time,
	       p.meta_description, p.meta_keywords, p.created_at, p.updated_at,
	       u.username, u.display_name, c.name, c.slug,
	       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id AND cm.is_approved)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id`

// PostOrder selects the ordering of a published listing. Every order ends
// with a unique key so pages never overlap.
type PostOrder string

const (
	OrderNewest     PostOrder = "newest"
	OrderOldest     PostOrder = "oldest"
	OrderViews      PostOrder = "views"
	OrderLeastViews PostOrder = "least_views"
	OrderTitle      PostOrder = "title"
	OrderTitleDesc  PostOrder = "title_desc"
)

var orderClauses = map[PostOrder]string{
	OrderNewest:     "p.created_at DESC, p.id DESC",
	OrderOldest:     "p.created_at ASC, p.id ASC",
	OrderViews:      "p.view_count DESC, p.created_at DESC, p.id DESC",
	OrderLeastViews: "p.view_count ASC, p.created_at DESC, p.id ASC",
	OrderTitle:      "lower(p.title) ASC, p.id ASC",
	OrderTitleDesc:  "lower(p.title) DESC, p.id DESC",
}

// PostFilter narrows a published listing. Empty fields are ignored; the
// remaining ones combine with AND.
type PostFilter struct {
	CategorySlug string
	TagSlug      string
	Author       string // username
	Search       string // case-insensitive substring of title OR content
	Order        PostOrder
	Limit        int
	Offset       int
}

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// scanPost scans a postSelect row into a Post.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p       models.Post
		a       models.Author
		catName sql.NullString
		catSlug sql.NullString
	)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.CategoryID, &p.CoverImage,
		&p.Content, &p.Excerpt, &p.Status, &p.ViewCount, &p.ReadingTime,
		&p.MetaDescription, &p.MetaKeywords, &p.CreatedAt, &p.UpdatedAt,
		&a.Username, &a.DisplayName, &catName, &catSlug,
		&p.LikeCount, &p.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	a.ID = p.AuthorID
	p.Author = &a
	if p.CategoryID != nil && catSlug.Valid {
		p.Category = &models.Category{ID: *p.CategoryID, Name: catName.String, Slug: catSlug.String}
	}
	return &p, nil
}

func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a post by its UUID regardless of status. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by its slug regardless of status. Callers
// decide visibility. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// NextFreeSlug returns base or the first unused "base-N" among posts.
func (s *PostStore) NextFreeSlug(ctx context.Context, base string) (string, error) {
	return nextFreeSlug(ctx, s.db, "posts", base)
}

// Create inserts a post together with its tag set in one transaction and
// returns the stored row. Returns ErrSlugTaken if the slug is in use.
func (s *PostStore) Create(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, author_id, category_id, cover_image, content,
		                   excerpt, status, reading_time, meta_description, meta_keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, p.Title, p.Slug, p.AuthorID, p.CategoryID, p.CoverImage, p.Content,
		p.Excerpt, p.Status, p.ReadingTime, p.MetaDescription, p.MetaKeywords,
	).Scan(&id)
	if err != nil {
		if constraint, ok := UniqueViolation(err); ok && constraint == "posts_slug_key" {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := setPostTags(ctx, tx, id, tagIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update writes the editable fields of a post, refreshes updated_at and
// replaces its tag set in one transaction. Slug and author never change here.
func (s *PostStore) Update(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, category_id = $2, content = $3, excerpt = $4, status = $5,
			reading_time = $6, meta_description = $7, meta_keywords = $8,
			updated_at = NOW()
		WHERE id = $9
	`, p.Title, p.CategoryID, p.Content, p.Excerpt, p.Status,
		p.ReadingTime, p.MetaDescription, p.MetaKeywords, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("clear post tags: %w", err)
	}
	if err := setPostTags(ctx, tx, p.ID, tagIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post update: %w", err)
	}
	return s.FindByID(ctx, p.ID)
}

// setPostTags associates tagIDs with a post inside tx.
func setPostTags(ctx context.Context, tx *sql.Tx, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, postID, uuidStrings(tagIDs))
	if err != nil {
		return fmt.Errorf("set post tags: %w", err)
	}
	return nil
}

// SetCover swaps the cover image handle and returns the previous one.
func (s *PostStore) SetCover(ctx context.Context, id uuid.UUID, handle *string) (*string, error) {
	var old *string
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts p SET cover_image = $2, updated_at = NOW()
		FROM (SELECT id, cover_image FROM posts WHERE id = $1 FOR UPDATE) prev
		WHERE p.id = prev.id
		RETURNING prev.cover_image
	`, id, handle).Scan(&old)
	if err != nil {
		return nil, fmt.Errorf("set post cover: %w", err)
	}
	return old, nil
}

// Delete removes a post by ID. Comments, likes and tag links go with it
// through ON DELETE CASCADE.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// IncrementViews adds exactly one view in a single atomic UPDATE and returns
// the new count. updated_at is left alone: views are not edits.
// Returns sql.ErrNoRows (wrapped) if the post does not exist.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET view_count = view_count + 1
		WHERE id = $1
		RETURNING view_count
	`, id).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// ListPublished returns one page of published posts matching f and the total
// number of matches. Drafts are never included.
func (s *PostStore) ListPublished(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	where := []string{"p.status = 'published'"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CategorySlug != "" {
		where = append(where, "c.slug = "+arg(f.CategorySlug))
	}
	if f.TagSlug != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = `+arg(f.TagSlug)+`)`)
	}
	if f.Author != "" {
		where = append(where, "u.username = "+arg(f.Author))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := arg("%" + escapeLike(q) + "%")
		where = append(where, "(p.title ILIKE "+pattern+" OR p.content ILIKE "+pattern+")")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE `+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count published posts: %w", err)
	}

	order, ok := orderClauses[f.Order]
	if !ok {
		order = orderClauses[OrderNewest]
	}
	query := postSelect + ` WHERE ` + cond + ` ORDER BY ` + order
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)
	}

	items, err := s.queryPosts(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list published posts: %w", err)
	}
	return items, total, nil
}

// ListByAuthor returns every post of an author, newest first. Drafts are
// included only when includeDrafts is set.
func (s *PostStore) ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]models.Post, error) {
	query := postSelect + ` WHERE p.author_id = $1`
	if !includeDrafts {
		query += ` AND p.status = 'published'`
	}
	items, err := s.queryPosts(ctx, query+` ORDER BY p.created_at DESC, p.id DESC`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return items, nil
}

// TopByViews returns an author's most viewed published posts. Ties go to the
// most recently created post.
func (s *PostStore) TopByViews(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Post, error) {
	items, err := s.queryPosts(ctx, postSelect+`
		WHERE p.author_id = $1 AND p.status = 'published'
		ORDER BY p.view_count DESC, p.created_at DESC, p.id DESC
		LIMIT $2`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("top posts by views: %w", err)
	}
	return items, nil
}

// Related returns other published posts in the same category, newest first.
func (s *PostStore) Related(ctx context.Context, post *models.Post, limit int) ([]models.Post, error) {
	if post.CategoryID == nil {
		return []models.Post{}, nil
	}
	items, err := s.queryPosts(ctx, postSelect+`
		WHERE p.category_id = $1 AND p.id <> $2 AND p.status = 'published'
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3`, *post.CategoryID, post.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	return items, nil
}

// AuthorCounts aggregates an author's post counts and total views.
// An author without posts gets zeros.
func (s *PostStore) AuthorCounts(ctx context.Context, authorID uuid.UUID) (total, published, draft, views int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'published'),
		       COUNT(*) FILTER (WHERE status = 'draft'),
		       COALESCE(SUM(view_count), 0)
		FROM posts WHERE author_id = $1
	`, authorID).Scan(&total, &published, &draft, &views)
	if err != nil {
		err = fmt.Errorf("author post counts: %w", err)
	}
	return
}

// TagsForPosts loads the tags of many posts at once, keyed by post ID.
func (s *PostStore) TagsForPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	result := make(map[uuid.UUID][]models.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1::uuid[])
		ORDER BY t.name
	`, uuidStrings(postIDs))
	if err != nil {
		return nil, fmt.Errorf("tags for posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan post tag: %w", err)
		}
		result[postID] = append(result[postID], t)
	}
	return result, rows.Err()
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// uuidStrings converts IDs to strings for ::uuid[] array parameters.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
