// api_test.go drives the full API over HTTP against PostgreSQL and Valkey.
// It is skipped when either is unavailable.
package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"stitchtales/internal/auth"
	"stitchtales/internal/blog"
	"stitchtales/internal/cache"
	"stitchtales/internal/database"
	"stitchtales/internal/handlers"
	"stitchtales/internal/middleware"
	"stitchtales/internal/session"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()

	dsn := "postgres://" + envOr("POSTGRES_USER", "stitchtales") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "stitchtales") + "?sslmode=disable"
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	blobs, err := storage.NewLocal(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	posts := store.NewPostStore(db)
	categories := store.NewCategoryStore(db)
	tags := store.NewTagStore(db)
	likes := store.NewLikeStore(db)
	comments := store.NewCommentStore(db)
	users := store.NewUserStore(db)
	feeds := cache.NewFeedCache(client, time.Minute)

	accounts := blog.NewAccounts(users)
	query := blog.NewQuery(posts, blobs)
	engagement := blog.NewEngagement(posts, likes, comments, nil)
	taxonomy := blog.NewTaxonomy(categories, tags, feeds)
	sessions := session.NewStore(client, false)
	tokens := auth.NewTokens("test-secret", time.Hour)

	h := Handlers{
		Auth:       handlers.NewAuth(accounts, sessions, tokens),
		Posts:      handlers.NewPosts(blog.NewPosts(posts, categories, tags, likes, comments, blobs, feeds), query, engagement, accounts),
		Taxonomy:   handlers.NewTaxonomy(taxonomy, query, accounts),
		Account:    handlers.NewAccount(blog.NewDashboard(posts, comments, likes, blobs), blog.NewProfiles(users, store.NewProfileStore(db), query, blobs), query, accounts),
		Moderation: handlers.NewModeration(engagement, accounts),
		Catalog:    handlers.NewCatalog(store.NewCatalogStore(db), feeds, "http://stitchtales.test"),
	}
	srv := httptest.NewServer(New(Options{Sessions: sessions, Tokens: tokens, UploadsDir: blobs.Dir(), UploadsURL: "/uploads"}, h))
	t.Cleanup(srv.Close)
	return srv, db
}

type apiClient struct {
	t      *testing.T
	srv    *httptest.Server
	http   *http.Client
	bearer string
}

func newClient(t *testing.T, srv *httptest.Server) *apiClient {
	jar, _ := cookiejar.New(nil)
	return &apiClient{t: t, srv: srv, http: &http.Client{Jar: jar}}
}

// do sends a JSON request and decodes the JSON response into out when given.
func (c *apiClient) do(method, path string, body, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, c.srv.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.http.Jar != nil {
		u, _ := url.Parse(c.srv.URL)
		for _, ck := range c.http.Jar.Cookies(u) {
			if ck.Name == middleware.CSRFCookieName {
				req.Header.Set(middleware.CSRFHeaderName, ck.Value)
			}
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func (c *apiClient) register(db *sql.DB) string {
	c.t.Helper()
	name := "api" + uuid.NewString()[:8]
	var u struct{ ID uuid.UUID }
	status := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": name, "email": name + "@api-test.local", "password": "knitting-needles",
	}, &u)
	if status != http.StatusCreated {
		c.t.Fatalf("register: status %d", status)
	}
	c.t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return name
}

func TestAPIPostLifecycle(t *testing.T) {
	srv, db := testServer(t)

	author := newClient(t, srv)
	name := author.register(db)
	var tok struct{ Token string }
	if status := author.do(http.MethodPost, "/api/auth/token", map[string]string{"username": name, "password": "knitting-needles"}, &tok); status != http.StatusOK {
		t.Fatalf("token: status %d", status)
	}
	author.bearer = tok.Token

	var created struct {
		Slug        string
		ReadingTime int `json:"reading_time"`
	}
	status := author.do(http.MethodPost, "/api/posts", map[string]any{
		"title": "Sock Heel " + uuid.NewString()[:8], "content": "Turn the heel.", "status": "published",
	}, &created)
	if status != http.StatusCreated || created.Slug == "" || created.ReadingTime != 1 {
		t.Fatalf("create: status %d, %+v", status, created)
	}

	reader := newClient(t, srv)
	reader.register(db)
	var detail struct {
		ViewCount int64 `json:"view_count"`
	}
	if status := reader.do(http.MethodGet, "/api/posts/"+created.Slug, nil, &detail); status != http.StatusOK || detail.ViewCount != 1 {
		t.Errorf("detail: status %d, views %d", status, detail.ViewCount)
	}

	// The reader is not signed in yet.
	if status := reader.do(http.MethodPost, "/api/posts/"+created.Slug+"/like", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("anonymous like: status %d, want 401", status)
	}
}

func TestAPISessionLikeAndComment(t *testing.T) {
	srv, db := testServer(t)

	author := newClient(t, srv)
	authorName := author.register(db)
	author.do(http.MethodPost, "/api/auth/login", map[string]string{"username": authorName, "password": "knitting-needles"}, nil)

	var post struct{ Slug string }
	if status := author.do(http.MethodPost, "/api/posts", map[string]any{
		"title": "Cables " + uuid.NewString()[:8], "content": "C4F", "status": "published",
	}, &post); status != http.StatusCreated {
		t.Fatalf("create via session: status %d", status)
	}

	reader := newClient(t, srv)
	readerName := reader.register(db)
	if status := reader.do(http.MethodPost, "/api/auth/login", map[string]string{"username": readerName, "password": "knitting-needles"}, nil); status != http.StatusOK {
		t.Fatalf("login: status %d", status)
	}

	var like struct {
		Status    string
		LikeCount int64 `json:"like_count"`
	}
	if status := reader.do(http.MethodPost, "/api/posts/"+post.Slug+"/like", nil, &like); status != http.StatusCreated || like.Status != "liked" {
		t.Errorf("like: status %d, %+v", status, like)
	}
	if status := reader.do(http.MethodPost, "/api/posts/"+post.Slug+"/like", nil, &like); status != http.StatusOK || like.Status != "unliked" || like.LikeCount != 0 {
		t.Errorf("unlike: status %d, %+v", status, like)
	}

	if status := reader.do(http.MethodPost, "/api/posts/"+post.Slug+"/comments", map[string]string{"content": "Beautiful"}, nil); status != http.StatusCreated {
		t.Errorf("comment: status %d", status)
	}
	if status := reader.do(http.MethodPost, "/api/posts/"+post.Slug+"/comments", map[string]string{"content": "  "}, nil); status != http.StatusBadRequest {
		t.Errorf("blank comment: status %d, want 400", status)
	}

	var listed []json.RawMessage
	reader.do(http.MethodGet, "/api/posts/"+post.Slug+"/comments", nil, &listed)
	if len(listed) != 0 {
		t.Errorf("unapproved comment listed: %d", len(listed))
	}

	// Someone else's post cannot be edited.
	if status := reader.do(http.MethodDelete, "/api/posts/"+post.Slug, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-owner delete: status %d, want 403", status)
	}
}

func TestAPICSRFRequiredForSessions(t *testing.T) {
	srv, db := testServer(t)

	c := newClient(t, srv)
	name := c.register(db)
	c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": name, "password": "knitting-needles"}, nil)

	// Same session cookie, no CSRF header.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/posts", bytes.NewBufferString(`{"title":"x","content":"y"}`))
	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", resp.StatusCode)
	}
}
