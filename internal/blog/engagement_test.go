package blog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"stitchtales/internal/models"
)

func TestToggleLike(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	author := s.user(t, models.RoleAuthor)
	reader := s.user(t, models.RoleAuthor)
	p := s.post(t, author, models.PostStatusPublished)

	steps := []struct {
		user  *models.User
		state models.LikeState
		count int64
	}{
		{reader, models.LikeStateLiked, 1},
		{author, models.LikeStateLiked, 2},
		{reader, models.LikeStateUnliked, 1},
		{reader, models.LikeStateLiked, 2},
	}
	for i, step := range steps {
		res, err := s.engagement.ToggleLike(ctx, p.ID, step.user)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.State != step.state || res.LikeCount != step.count {
			t.Errorf("step %d: got %s/%d, want %s/%d", i, res.State, res.LikeCount, step.state, step.count)
		}
	}

	if _, err := s.engagement.ToggleLike(ctx, p.ID, nil); !isPermission(err) {
		t.Errorf("anonymous like: got %v, want PermissionError", err)
	}

	draft := s.post(t, author, models.PostStatusDraft)
	if _, err := s.engagement.ToggleLike(ctx, draft.ID, reader); !isNotFound(err) {
		t.Errorf("liking someone else's draft: got %v, want NotFoundError", err)
	}
}

func TestToggleLikeConcurrentPairs(t *testing.T) {
	s := newServices(t, nil)
	author := s.user(t, models.RoleAuthor)
	reader := s.user(t, models.RoleAuthor)
	p := s.post(t, author, models.PostStatusPublished)

	// An even number of toggles by the same user leaves no like behind.
	const n = 10
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.engagement.ToggleLike(context.Background(), p.ID, reader); err != nil {
				t.Errorf("ToggleLike: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int
	s.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_id = $1`, p.ID).Scan(&count)
	if count != 0 {
		t.Errorf("likes after %d toggles: got %d, want 0", n, count)
	}
}

func TestAddComment(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	author := s.user(t, models.RoleAuthor)
	reader := s.user(t, models.RoleAuthor)
	p := s.post(t, author, models.PostStatusPublished)

	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{"blank", "   \n\t", false},
		{"too long", strings.Repeat("x", MaxCommentLength+1), false},
		{"exactly max", strings.Repeat("é", MaxCommentLength), true},
		{"normal", "  What yarn weight is this?  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.engagement.AddComment(ctx, p.ID, reader, tt.text)
			if !tt.ok {
				if !isValidation(err) {
					t.Fatalf("got %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddComment: %v", err)
			}
			if c.IsApproved {
				t.Error("new comments must await approval")
			}
			if c.Content != strings.TrimSpace(tt.text) {
				t.Errorf("content not trimmed: %q", c.Content)
			}
		})
	}

	approved, err := s.engagement.ListApprovedComments(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListApprovedComments: %v", err)
	}
	if len(approved) != 0 {
		t.Errorf("unapproved comments listed publicly: %d", len(approved))
	}
}

func TestAddCommentScreening(t *testing.T) {
	ctx := context.Background()

	s := newServices(t, fakeScreener{word: "nasty"})
	author := s.user(t, models.RoleAuthor)
	p := s.post(t, author, models.PostStatusPublished)

	flagged, err := s.engagement.AddComment(ctx, p.ID, author, "a nasty remark")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(flagged.FlaggedReasons) != 1 || flagged.FlaggedReasons[0] != "harassment" || flagged.IsApproved {
		t.Errorf("flagged comment: %+v", flagged)
	}

	clean, err := s.engagement.AddComment(ctx, p.ID, author, "a kind remark")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(clean.FlaggedReasons) != 0 {
		t.Errorf("clean comment flagged: %v", clean.FlaggedReasons)
	}

	// A failing screener never blocks commenting.
	broken := newServices(t, fakeScreener{err: errors.New("upstream down")})
	if _, err := broken.engagement.AddComment(ctx, p.ID, author, "still works"); err != nil {
		t.Errorf("AddComment with failing screener: %v", err)
	}
}

func TestCommentModeration(t *testing.T) {
	s := newServices(t, nil)
	ctx := context.Background()
	author := s.user(t, models.RoleAuthor)
	moderator := s.user(t, models.RoleModerator)
	p := s.post(t, author, models.PostStatusPublished)

	first, _ := s.engagement.AddComment(ctx, p.ID, author, "first")
	second, _ := s.engagement.AddComment(ctx, p.ID, author, "second")
	spam, _ := s.engagement.AddComment(ctx, p.ID, author, "spam")

	if _, err := s.engagement.PendingComments(ctx, author); !isPermission(err) {
		t.Errorf("author listing queue: got %v, want PermissionError", err)
	}
	if err := s.engagement.ApproveComment(ctx, first.ID, author); !isPermission(err) {
		t.Errorf("author approving own comment: got %v, want PermissionError", err)
	}

	for _, c := range []*models.Comment{second, first} {
		if err := s.engagement.ApproveComment(ctx, c.ID, moderator); err != nil {
			t.Fatalf("ApproveComment: %v", err)
		}
	}
	if err := s.engagement.RejectComment(ctx, spam.ID, moderator); err != nil {
		t.Fatalf("RejectComment: %v", err)
	}
	if err := s.engagement.RejectComment(ctx, spam.ID, moderator); !isNotFound(err) {
		t.Errorf("rejecting twice: got %v, want NotFoundError", err)
	}

	approved, err := s.engagement.ListApprovedComments(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListApprovedComments: %v", err)
	}
	if len(approved) != 2 || approved[0].ID != first.ID || approved[1].ID != second.ID {
		t.Errorf("approved comments not in creation order: %+v", approved)
	}
}
