package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"stitchtales/internal/models"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

const avatarPrefix = "avatars"

// ProfileInput is the editable part of a user profile.
type ProfileInput struct {
	Bio       string `json:"bio" validate:"max=500"`
	Website   string `json:"website" validate:"omitempty,max=200,http_url"`
	Instagram string `json:"instagram" validate:"max=100"`
	Pinterest string `json:"pinterest" validate:"max=100"`
}

// AuthorPage is the public page of an author.
type AuthorPage struct {
	Author  models.Author      `json:"author"`
	Profile models.UserProfile `json:"profile"`
	Posts   []models.Post      `json:"posts"`
}

// Profiles manages user profiles and avatars.
type Profiles struct {
	users    *store.UserStore
	profiles *store.ProfileStore
	query    *Query
	blobs    storage.Blob
}

// NewProfiles creates the profile service.
func NewProfiles(users *store.UserStore, profiles *store.ProfileStore, query *Query, blobs storage.Blob) *Profiles {
	return &Profiles{users: users, profiles: profiles, query: query, blobs: blobs}
}

// Get returns the profile of userID, creating an empty one on first access.
func (s *Profiles) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if _, ok := store.ForeignKeyViolation(err); ok {
			return nil, &NotFoundError{Resource: "user", Key: userID.String()}
		}
		return nil, err
	}
	s.withAvatarURL(p)
	return p, nil
}

func (s *Profiles) withAvatarURL(p *models.UserProfile) {
	if p.Avatar != nil && s.blobs != nil {
		p.AvatarURL = s.blobs.URL(*p.Avatar)
	}
}

// Update replaces the editable fields of actor's own profile.
func (s *Profiles) Update(ctx context.Context, actor *models.User, in ProfileInput) (*models.UserProfile, error) {
	if actor == nil {
		return nil, &PermissionError{Action: "edit profile"}
	}
	in.Bio = strings.TrimSpace(in.Bio)
	in.Website = strings.TrimSpace(in.Website)
	in.Instagram = strings.TrimSpace(in.Instagram)
	in.Pinterest = strings.TrimSpace(in.Pinterest)
	if err := check(in); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	p.Bio = in.Bio
	p.Website = in.Website
	p.Instagram = in.Instagram
	p.Pinterest = in.Pinterest
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetAvatar stores an uploaded image as actor's avatar and drops the old one.
func (s *Profiles) SetAvatar(ctx context.Context, actor *models.User, data []byte, contentType string) (*models.UserProfile, error) {
	if actor == nil {
		return nil, &PermissionError{Action: "edit profile"}
	}
	if len(data) == 0 {
		return nil, invalid("avatar", "No image was submitted.")
	}
	if !storage.IsImage(contentType) {
		return nil, invalid("avatar", "Upload a valid image (JPEG, PNG, GIF or WebP).")
	}
	if _, err := s.Get(ctx, actor.ID); err != nil {
		return nil, err
	}

	handle, err := s.blobs.Store(ctx, avatarPrefix, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	old, err := s.profiles.SetAvatar(ctx, actor.ID, &handle)
	if err != nil {
		_ = s.blobs.Delete(ctx, handle)
		return nil, err
	}
	if old != nil && *old != "" {
		_ = s.blobs.Delete(ctx, *old)
	}
	return s.Get(ctx, actor.ID)
}

// AuthorPage returns the public profile and published posts of username.
func (s *Profiles) AuthorPage(ctx context.Context, username string) (*AuthorPage, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "author", Key: username}
	}
	p, err := s.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.query.ListByAuthor(ctx, u.ID, nil)
	if err != nil {
		return nil, err
	}
	return &AuthorPage{
		Author:  models.Author{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName},
		Profile: *p,
		Posts:   posts,
	}, nil
}
