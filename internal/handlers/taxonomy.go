package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stitchtales/internal/blog"
	"stitchtales/internal/pagination"
)

// Taxonomy serves category and tag endpoints.
type Taxonomy struct {
	taxonomy *blog.Taxonomy
	query    *blog.Query
	accounts *blog.Accounts
}

// NewTaxonomy creates the taxonomy handler group.
func NewTaxonomy(taxonomy *blog.Taxonomy, query *blog.Query, accounts *blog.Accounts) *Taxonomy {
	return &Taxonomy{taxonomy: taxonomy, query: query, accounts: accounts}
}

// ListCategories handles GET /api/categories.
func (h *Taxonomy) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.taxonomy.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Category handles GET /api/categories/{slug}.
func (h *Taxonomy) Category(w http.ResponseWriter, r *http.Request) {
	c, err := h.taxonomy.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CategoryPosts handles GET /api/categories/{slug}/posts.
func (h *Taxonomy) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	c, err := h.taxonomy.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.query.ListPublished(r.Context(), blog.Filter{
		CategorySlug: c.Slug,
		Order:        blog.ParseOrder(q.Get("ordering")),
		Paginate:     pagination.MakeFrom(q),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateCategory handles POST /api/categories.
func (h *Taxonomy) CreateCategory(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.taxonomy.CreateCategory(r.Context(), u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/categories/{id}.
func (h *Taxonomy) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.taxonomy.UpdateCategory(r.Context(), u, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (h *Taxonomy) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.taxonomy.DeleteCategory(r.Context(), u, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Taxonomy) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := h.taxonomy.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Tag handles GET /api/tags/{slug}.
func (h *Taxonomy) Tag(w http.ResponseWriter, r *http.Request) {
	t, err := h.taxonomy.TagBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TagPosts handles GET /api/tags/{slug}/posts.
func (h *Taxonomy) TagPosts(w http.ResponseWriter, r *http.Request) {
	t, err := h.taxonomy.TagBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.query.ListPublished(r.Context(), blog.Filter{
		TagSlug:  t.Slug,
		Order:    blog.ParseOrder(q.Get("ordering")),
		Paginate: pagination.MakeFrom(q),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateTag handles POST /api/tags.
func (h *Taxonomy) CreateTag(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	var in blog.TagInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.taxonomy.CreateTag(r.Context(), u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *Taxonomy) UpdateTag(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in blog.TagInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.taxonomy.UpdateTag(r.Context(), u, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *Taxonomy) DeleteTag(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.taxonomy.DeleteTag(r.Context(), u, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
