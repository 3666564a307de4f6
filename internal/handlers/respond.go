// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API of StitchTales. Handlers
// decode requests, resolve the caller and delegate to the blog services;
// service errors are translated into status codes in one place.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stitchtales/internal/blog"
	"stitchtales/internal/middleware"
	"stitchtales/internal/models"
)

const (
	// maxJSONBody caps request bodies decoded as JSON.
	maxJSONBody = 1 << 20

	// maxUploadBody caps raw image uploads.
	maxUploadBody = 5 << 20
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into dst. It writes a 400 and returns false
// when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		}
		return false
	}
	return true
}

// readUpload reads a raw upload body and its declared content type.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large (max 5 MB)")
		return nil, "", false
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return data, ct, true
}

// writeServiceError maps a blog service error to its HTTP status.
// Unexpected errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *blog.ValidationError
		perr     *blog.PermissionError
		nferr    *blog.NotFoundError
		conflict *blog.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &perr):
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.As(err, &nferr):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "conflict", "fields": map[string]string{conflict.Field: conflict.Message}})
	case errors.Is(err, blog.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// viewer resolves the caller of r to a user. Anonymous requests, and
// identities whose account no longer exists, yield nil.
func viewer(r *http.Request, accounts *blog.Accounts) (*models.User, error) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		return nil, nil
	}
	return accounts.User(r.Context(), id.UserID)
}

// actor is viewer for routes behind RequireAuth. It writes the response
// and returns nil when the caller cannot be resolved.
func actor(w http.ResponseWriter, r *http.Request, accounts *blog.Accounts) *models.User {
	u, err := viewer(r, accounts)
	if err != nil {
		writeServiceError(w, r, err)
		return nil
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return u
}

// pathUUID parses a UUID route parameter, writing a 404 when malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return uuid.Nil, false
	}
	return id, true
}
