package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stitchtales/internal/blog"
	"stitchtales/internal/models"
	"stitchtales/internal/pagination"
)

// Posts serves post reading, writing and engagement endpoints.
type Posts struct {
	posts      *blog.Posts
	query      *blog.Query
	engagement *blog.Engagement
	accounts   *blog.Accounts
}

// NewPosts creates the post handler group.
func NewPosts(posts *blog.Posts, query *blog.Query, engagement *blog.Engagement, accounts *blog.Accounts) *Posts {
	return &Posts{posts: posts, query: query, engagement: engagement, accounts: accounts}
}

// filterFrom reads listing filters from the query string.
func filterFrom(r *http.Request) blog.Filter {
	q := r.URL.Query()
	return blog.Filter{
		CategorySlug: q.Get("category"),
		TagSlug:      q.Get("tag"),
		Author:       q.Get("author"),
		Search:       q.Get("q"),
		Order:        blog.ParseOrder(q.Get("ordering")),
		Paginate:     pagination.MakeFrom(q),
	}
}

// List handles GET /api/posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.query.ListPublished(r.Context(), filterFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Detail handles GET /api/posts/{slug}. Reading a published post counts a view.
func (h *Posts) Detail(w http.ResponseWriter, r *http.Request) {
	u, err := viewer(r, h.accounts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.posts.Detail(r.Context(), chi.URLParam(r, "slug"), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// lookup resolves the {slug} of r to a post visible to u.
func (h *Posts) lookup(w http.ResponseWriter, r *http.Request, u *models.User) *models.Post {
	p, err := h.posts.BySlug(r.Context(), chi.URLParam(r, "slug"), u)
	if err != nil {
		writeServiceError(w, r, err)
		return nil
	}
	return p
}

// Related handles GET /api/posts/{slug}/related.
func (h *Posts) Related(w http.ResponseWriter, r *http.Request) {
	u, err := viewer(r, h.accounts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	items, err := h.posts.Related(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	var in blog.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.posts.Create(r.Context(), u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/posts/{slug}.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	var in blog.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	updated, err := h.posts.Update(r.Context(), p.ID, u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/posts/{slug}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	if err := h.posts.Delete(r.Context(), p.ID, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCover handles PUT /api/posts/{slug}/cover with a raw image body.
func (h *Posts) SetCover(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	data, ct, ok := readUpload(w, r)
	if !ok {
		return
	}
	updated, err := h.posts.SetCover(r.Context(), p.ID, u, data, ct)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Like handles POST /api/posts/{slug}/like: 201 when the post becomes
// liked, 200 when the like is removed.
func (h *Posts) Like(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	res, err := h.engagement.ToggleLike(r.Context(), p.ID, u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.State == models.LikeStateLiked {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// Comments handles GET /api/posts/{slug}/comments.
func (h *Posts) Comments(w http.ResponseWriter, r *http.Request) {
	u, err := viewer(r, h.accounts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	items, err := h.engagement.ListApprovedComments(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /api/posts/{slug}/comments. The comment awaits
// moderation before it is listed.
func (h *Posts) AddComment(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p := h.lookup(w, r, u)
	if p == nil {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.engagement.AddComment(r.Context(), p.ID, u, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
