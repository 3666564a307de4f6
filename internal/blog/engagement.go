// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"stitchtales/internal/models"
	"stitchtales/internal/moderation"
	"stitchtales/internal/store"
)

// MaxCommentLength is the longest comment accepted, in characters.
const MaxCommentLength = 1000

// Engagement handles likes, comments and comment moderation.
type Engagement struct {
	posts    *store.PostStore
	likes    *store.LikeStore
	comments *store.CommentStore
	screener moderation.Screener
}

// NewEngagement creates the engagement service. screener may be nil, in
// which case comments are stored without screening.
func NewEngagement(posts *store.PostStore, likes *store.LikeStore, comments *store.CommentStore, screener moderation.Screener) *Engagement {
	return &Engagement{posts: posts, likes: likes, comments: comments, screener: screener}
}

// visiblePost loads a post that viewer may see.
func (e *Engagement) visiblePost(ctx context.Context, postID uuid.UUID, viewer *models.User) (*models.Post, error) {
	p, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.VisibleTo(actorID(viewer)) {
		return nil, &NotFoundError{Resource: "post", Key: postID.String()}
	}
	return p, nil
}

// ToggleLike likes the post if user has not liked it yet, otherwise removes
// the like. The returned count reflects the state after the toggle.
func (e *Engagement) ToggleLike(ctx context.Context, postID uuid.UUID, user *models.User) (*models.LikeResult, error) {
	if user == nil {
		return nil, &PermissionError{Action: "like post"}
	}
	if _, err := e.visiblePost(ctx, postID, user); err != nil {
		return nil, err
	}
	res, err := e.likes.Toggle(ctx, postID, user.ID)
	if err != nil {
		if _, ok := store.ForeignKeyViolation(err); ok {
			return nil, &NotFoundError{Resource: "post", Key: postID.String()}
		}
		return nil, err
	}
	return res, nil
}

// AddComment stores a new comment awaiting approval. When a screener is
// configured, flagged categories are recorded on the comment for the
// moderators; a screening failure only gets logged.
func (e *Engagement) AddComment(ctx context.Context, postID uuid.UUID, author *models.User, text string) (*models.Comment, error) {
	if author == nil {
		return nil, &PermissionError{Action: "comment"}
	}
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return nil, invalid("content", "This field is required.")
	case n > MaxCommentLength:
		return nil, invalid("content", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxCommentLength))
	}

	if _, err := e.visiblePost(ctx, postID, author); err != nil {
		return nil, err
	}

	var flagged []string
	if e.screener != nil {
		res, err := e.screener.Screen(ctx, text)
		if err != nil {
			slog.Warn("comment screening failed", "post_id", postID, "error", err)
		} else if res.Flagged {
			flagged = res.Categories
		}
	}

	c, err := e.comments.Create(ctx, postID, author.ID, text, flagged)
	if err != nil {
		if _, ok := store.ForeignKeyViolation(err); ok {
			return nil, &NotFoundError{Resource: "post", Key: postID.String()}
		}
		return nil, err
	}
	slog.Info("comment added", "comment_id", c.ID, "post_id", postID, "flagged", len(flagged) > 0)
	return c, nil
}

// ListApprovedComments returns a post's approved comments, oldest first.
func (e *Engagement) ListApprovedComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	return e.comments.ListApproved(ctx, postID)
}

func requireModerator(actor *models.User, action string) error {
	if actor == nil || !actor.CanModerate() {
		return &PermissionError{Action: action}
	}
	return nil
}

// PendingComments returns the moderation queue, oldest first.
func (e *Engagement) PendingComments(ctx context.Context, actor *models.User) ([]models.Comment, error) {
	if err := requireModerator(actor, "moderate comments"); err != nil {
		return nil, err
	}
	return e.comments.ListPending(ctx)
}

// ApproveComment makes a comment publicly visible.
func (e *Engagement) ApproveComment(ctx context.Context, id uuid.UUID, actor *models.User) error {
	if err := requireModerator(actor, "approve comment"); err != nil {
		return err
	}
	ok, err := e.comments.Approve(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "comment", Key: id.String()}
	}
	slog.Info("comment approved", "comment_id", id, "moderator", actor.Username)
	return nil
}

// RejectComment deletes a comment.
func (e *Engagement) RejectComment(ctx context.Context, id uuid.UUID, actor *models.User) error {
	if err := requireModerator(actor, "reject comment"); err != nil {
		return err
	}
	ok, err := e.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "comment", Key: id.String()}
	}
	slog.Info("comment rejected", "comment_id", id, "moderator", actor.Username)
	return nil
}
