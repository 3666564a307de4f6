package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stitchtales/internal/blog"
)

// Account serves the signed-in user's dashboard and profile, plus public
// author pages.
type Account struct {
	dashboard *blog.Dashboard
	profiles  *blog.Profiles
	query     *blog.Query
	accounts  *blog.Accounts
}

// NewAccount creates the account handler group.
func NewAccount(dashboard *blog.Dashboard, profiles *blog.Profiles, query *blog.Query, accounts *blog.Accounts) *Account {
	return &Account{dashboard: dashboard, profiles: profiles, query: query, accounts: accounts}
}

// Dashboard handles GET /api/dashboard.
func (h *Account) Dashboard(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	stats, err := h.dashboard.AuthorStats(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MyPosts handles GET /api/me/posts, drafts included.
func (h *Account) MyPosts(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	items, err := h.query.ListByAuthor(r.Context(), u.ID, u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Profile handles GET /api/profile.
func (h *Account) Profile(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	p, err := h.profiles.Get(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile.
func (h *Account) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	var in blog.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.profiles.Update(r.Context(), u, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetAvatar handles PUT /api/profile/avatar with a raw image body.
func (h *Account) SetAvatar(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	data, ct, ok := readUpload(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.SetAvatar(r.Context(), u, data, ct)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Author handles GET /api/authors/{username}.
func (h *Account) Author(w http.ResponseWriter, r *http.Request) {
	page, err := h.profiles.AuthorPage(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
