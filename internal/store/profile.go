package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"stitchtales/internal/models"
)

// ProfileStore reads and writes user profiles.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get returns the profile of userID, creating an empty one on first access.
// Concurrent first reads are safe: the insert is ON CONFLICT DO NOTHING.
func (s *ProfileStore) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	p := &models.UserProfile{}
	err = s.db.QueryRowContext(ctx, `
		SELECT user_id, bio, avatar, website, instagram, pinterest, created_at
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Bio, &p.Avatar, &p.Website, &p.Instagram, &p.Pinterest, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update writes the editable text fields of a profile.
func (s *ProfileStore) Update(ctx context.Context, p *models.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_profiles SET bio = $1, website = $2, instagram = $3, pinterest = $4
		WHERE user_id = $5
	`, p.Bio, p.Website, p.Instagram, p.Pinterest, p.UserID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetAvatar swaps the avatar handle and returns the previous one.
func (s *ProfileStore) SetAvatar(ctx context.Context, userID uuid.UUID, handle *string) (*string, error) {
	var old *string
	err := s.db.QueryRowContext(ctx, `
		UPDATE user_profiles p SET avatar = $2
		FROM (SELECT user_id, avatar FROM user_profiles WHERE user_id = $1 FOR UPDATE) prev
		WHERE p.user_id = prev.user_id
		RETURNING prev.avatar
	`, userID, handle).Scan(&old)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return old, nil
}
