// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"sync"
	"testing"

	"stitchtales/internal/models"
)

func TestLikeStoreToggle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db)
	reader := testUser(t, db)
	p := testPost(t, db, author, models.PostStatusPublished, nil)
	s := NewLikeStore(db)

	first, err := s.Toggle(ctx, p.ID, reader.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if first.State != models.LikeStateLiked || first.LikeCount != 1 {
		t.Errorf("first toggle: got %+v", first)
	}

	second, err := s.Toggle(ctx, p.ID, reader.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if second.State != models.LikeStateUnliked || second.LikeCount != 0 {
		t.Errorf("second toggle: got %+v", second)
	}
}

func TestLikeStoreToggleConcurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db)
	reader := testUser(t, db)
	p := testPost(t, db, author, models.PostStatusPublished, nil)
	s := NewLikeStore(db)

	// An even number of toggles from the same user always ends unliked.
	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Toggle(ctx, p.ID, reader.ID); err != nil {
				t.Errorf("Toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	liked, err := s.HasLiked(ctx, p.ID, reader.ID)
	if err != nil {
		t.Fatalf("HasLiked: %v", err)
	}
	if liked {
		t.Error("expected unliked after an even number of toggles")
	}
	if n, _ := s.CountForPost(ctx, p.ID); n != 0 {
		t.Errorf("like count: got %d, want 0", n)
	}
}
