package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"stitchtales/internal/content"
	"stitchtales/internal/slug"
)

// seedCategories are created on first start in development.
var seedCategories = []struct{ name, description string }{
	{"Crochet", "Hooks, stitches and granny squares."},
	{"Knitting", "Needles, patterns and yarn weights."},
	{"Embroidery", "Hoops, floss and hand stitching."},
}

var seedTags = []string{"Beginner", "Pattern", "Yarn Review", "Tutorial"}

const welcomeBody = `Welcome to StitchTales, a place to share patterns, progress and the
occasional tangled skein. Sign in with the default admin account, write your first
post, and publish it when it is ready. Drafts stay private until then.`

// Seed populates the database with initial development data.
// It creates a default admin user, a few categories and tags, and a
// published welcome post if no users exist yet.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID string
	err = tx.QueryRow(`
		INSERT INTO users (username, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, 'admin')
		RETURNING id
	`, "admin", "admin@stitchtales.local", string(hash), "Admin").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var firstCategory string
	for i, c := range seedCategories {
		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, c.name, slug.Generate(c.name), c.description).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.name, err)
		}
		if i == 0 {
			firstCategory = id
		}
	}

	for _, name := range seedTags {
		if _, err := tx.Exec(`
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO NOTHING
		`, name, slug.Generate(name)); err != nil {
			return fmt.Errorf("seed tag %s: %w", name, err)
		}
	}

	title := "Welcome to StitchTales"
	if _, err := tx.Exec(`
		INSERT INTO posts (title, slug, author_id, category_id, content, excerpt,
		                   status, reading_time)
		VALUES ($1, $2, $3, $4, $5, $6, 'published', $7)
		ON CONFLICT (slug) DO NOTHING
	`, title, slug.Generate(title), adminID, firstCategory, welcomeBody,
		content.Excerpt(welcomeBody), content.ReadingTime(welcomeBody)); err != nil {
		return fmt.Errorf("seed welcome post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", "admin",
		"password", "admin",
	)

	return nil
}
