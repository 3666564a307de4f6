// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"stitchtales/internal/database"
	"stitchtales/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "stitchtales")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "stitchtales")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a throwaway author whose rows (posts, comments, likes)
// are removed by cascade when the test ends.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	name := "u" + uuid.NewString()[:8]
	u, err := NewUserStore(db).Create(context.Background(), name, name+"@store-test.local", "pass", "Test "+name, models.RoleAuthor)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testPost creates a post owned by author with a unique slug.
func testPost(t *testing.T, db *sql.DB, author *models.User, status models.PostStatus, categoryID *uuid.UUID) *models.Post {
	t.Helper()
	p, err := NewPostStore(db).Create(context.Background(), &models.Post{
		Title:       "Store test " + uuid.NewString()[:8],
		Slug:        "store-test-" + uuid.NewString()[:8],
		AuthorID:    author.ID,
		CategoryID:  categoryID,
		Content:     "one two three",
		Excerpt:     "one two three",
		Status:      status,
		ReadingTime: 1,
	}, nil)
	if err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return p
}

// cleanCategories removes test categories by slug. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", s)
	}
}

// cleanTags removes test tags by slug. Call in t.Cleanup().
func cleanTags(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM tags WHERE slug = $1", s)
	}
}
