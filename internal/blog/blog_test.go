// blog_test.go wires the services against the test database. Tests that
// need PostgreSQL are skipped when it is not reachable.
package blog

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"stitchtales/internal/database"
	"stitchtales/internal/models"
	"stitchtales/internal/moderation"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "postgres://" + envOr("POSTGRES_USER", "stitchtales") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "stitchtales") + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
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

// countingInvalidator records catalog invalidations.
type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

// fakeScreener flags every text containing its word.
type fakeScreener struct {
	word string
	err  error
}

func (f fakeScreener) Screen(_ context.Context, text string) (*moderation.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.word != "" && strings.Contains(text, f.word) {
		return &moderation.Result{Flagged: true, Categories: []string{"harassment"}}, nil
	}
	return &moderation.Result{Categories: []string{}}, nil
}

type services struct {
	db         *sql.DB
	posts      *Posts
	taxonomy   *Taxonomy
	engagement *Engagement
	query      *Query
	dashboard  *Dashboard
	profiles   *Profiles
	accounts   *Accounts
	catalog    *countingInvalidator
	blobs      *storage.Local
}

func newServices(t *testing.T, screener moderation.Screener) *services {
	t.Helper()
	db := testDB(t)

	blobs, err := storage.NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	postStore := store.NewPostStore(db)
	categories := store.NewCategoryStore(db)
	tags := store.NewTagStore(db)
	likes := store.NewLikeStore(db)
	comments := store.NewCommentStore(db)
	users := store.NewUserStore(db)
	catalog := &countingInvalidator{}
	query := NewQuery(postStore, blobs)

	return &services{
		db:         db,
		posts:      NewPosts(postStore, categories, tags, likes, comments, blobs, catalog),
		taxonomy:   NewTaxonomy(categories, tags, catalog),
		engagement: NewEngagement(postStore, likes, comments, screener),
		query:      query,
		dashboard:  NewDashboard(postStore, comments, likes, blobs),
		profiles:   NewProfiles(users, store.NewProfileStore(db), query, blobs),
		accounts:   NewAccounts(users),
		catalog:    catalog,
		blobs:      blobs,
	}
}

// user creates a throwaway account; its posts, comments and likes go with
// it by cascade when the test ends.
func (s *services) user(t *testing.T, role models.Role) *models.User {
	t.Helper()
	name := "b" + uuid.NewString()[:8]
	u, err := store.NewUserStore(s.db).Create(context.Background(), name, name+"@blog-test.local", "password1", "Blog "+name, role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { s.db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// post creates a post through the service with a unique title.
func (s *services) post(t *testing.T, author *models.User, status models.PostStatus, mutate ...func(*PostInput)) *models.Post {
	t.Helper()
	in := PostInput{
		Title:   "Blog test " + uuid.NewString()[:8],
		Content: "Knit one, purl two.",
		Status:  status,
	}
	for _, m := range mutate {
		m(&in)
	}
	p, err := s.posts.Create(context.Background(), author, in)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func (s *services) category(t *testing.T, admin *models.User) *models.Category {
	t.Helper()
	c, err := s.taxonomy.CreateCategory(context.Background(), admin, CategoryInput{Name: "Cat " + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() { s.db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	return c
}

func (s *services) tag(t *testing.T, admin *models.User) *models.Tag {
	t.Helper()
	tag, err := s.taxonomy.CreateTag(context.Background(), admin, TagInput{Name: "Tag " + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	t.Cleanup(func() { s.db.Exec("DELETE FROM tags WHERE id = $1", tag.ID) })
	return tag
}
