package handlers

import (
	"net/http"

	"stitchtales/internal/blog"
)

// Moderation serves the comment moderation queue.
type Moderation struct {
	engagement *blog.Engagement
	accounts   *blog.Accounts
}

// NewModeration creates the moderation handler group.
func NewModeration(engagement *blog.Engagement, accounts *blog.Accounts) *Moderation {
	return &Moderation{engagement: engagement, accounts: accounts}
}

// Pending handles GET /api/moderation/comments.
func (h *Moderation) Pending(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	items, err := h.engagement.PendingComments(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Approve handles POST /api/moderation/comments/{id}/approve.
func (h *Moderation) Approve(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.engagement.ApproveComment(r.Context(), id, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reject handles DELETE /api/moderation/comments/{id}.
func (h *Moderation) Reject(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r, h.accounts)
	if u == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.engagement.RejectComment(r.Context(), id, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
