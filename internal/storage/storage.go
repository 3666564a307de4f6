// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage holds uploaded images (post covers, avatars). Callers
// only see opaque handles; the backend is picked once at startup.
package storage

import (
	"context"
	"errors"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned when an upload is not an image.
var ErrUnsupportedType = errors.New("unsupported content type")

// Blob stores and serves binary objects addressed by handles of the form
// "<prefix>/<uuid>.<ext>".
type Blob interface {
	// Store saves data and returns its handle.
	Store(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
	// URL returns the public URL of a handle.
	URL(handle string) string
	// Delete removes a stored object. Deleting a missing object is not an error.
	Delete(ctx context.Context, handle string) error
}

// imageExts maps accepted image types to file extensions.
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewHandle builds a fresh handle under prefix for an upload of contentType.
// Only image types are accepted.
func NewHandle(prefix, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedType
	}
	ext, ok := imageExts[mediaType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext, nil
}

// IsImage reports whether contentType is an accepted image type.
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, ok := imageExts[mediaType]
	return ok
}

// validHandle rejects handles that could escape the storage root.
func validHandle(handle string) bool {
	if handle == "" || strings.HasPrefix(handle, "/") || strings.Contains(handle, "\\") {
		return false
	}
	for _, part := range strings.Split(handle, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
