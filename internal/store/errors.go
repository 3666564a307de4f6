// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the services translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// UniqueViolation reports whether err is a unique-constraint violation and,
// if so, which constraint was hit (e.g. "posts_slug_key").
func UniqueViolation(err error) (string, bool) {
	return pgViolation(err, codeUniqueViolation)
}

// ForeignKeyViolation reports whether err is a foreign-key violation and,
// if so, which constraint was hit (e.g. "posts_category_id_fkey").
func ForeignKeyViolation(err error) (string, bool) {
	return pgViolation(err, codeForeignKeyViolation)
}

func pgViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
