package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testStore returns a Store on Valkey DB 15, skipping when Valkey is down.
func testStore(t *testing.T, secure bool) (*Store, *redis.Client) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return NewStore(client, secure), client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func requestWith(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me/dashboard", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func TestSessionCreateAndGet(t *testing.T) {
	store, _ := testStore(t, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	data := &Data{UserID: uuid.New(), Username: "purlqueen", Role: "author"}
	id, err := store.Create(ctx, w, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(id) != idLength*2 {
		t.Errorf("id length: got %d, want %d", len(id), idLength*2)
	}

	c := sessionCookie(t, w)
	if !c.HttpOnly || c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags: HttpOnly=%v Secure=%v SameSite=%v", c.HttpOnly, c.Secure, c.SameSite)
	}

	got, err := store.Get(ctx, requestWith(c))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserID != data.UserID || got.Username != "purlqueen" || got.Role != "author" {
		t.Fatalf("Get: got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSessionGetMissing(t *testing.T) {
	store, _ := testStore(t, false)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"empty cookie", &http.Cookie{Name: CookieName, Value: ""}},
		{"unknown id", &http.Cookie{Name: CookieName, Value: "nonexistent-session-id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := store.Get(context.Background(), requestWith(tt.cookie))
			if err != nil || data != nil {
				t.Errorf("Get: got %+v, %v; want nil, nil", data, err)
			}
		})
	}
}

func TestSessionGetSlidesExpiry(t *testing.T) {
	store, client := testStore(t, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	id, err := store.Create(ctx, w, &Data{UserID: uuid.New(), Username: "slider"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	client.Expire(ctx, keyPrefix+id, time.Minute)

	if _, err := store.Get(ctx, requestWith(sessionCookie(t, w))); err != nil {
		t.Fatalf("Get: %v", err)
	}
	ttl, err := client.TTL(ctx, keyPrefix+id).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= time.Hour {
		t.Errorf("TTL after Get: got %v, want close to %v", ttl, DefaultTTL)
	}
}

func TestSessionRotate(t *testing.T) {
	store, client := testStore(t, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	data := &Data{UserID: uuid.New(), Username: "twofactor", Role: "author"}
	oldID, err := store.Create(ctx, w, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldCookie := sessionCookie(t, w)

	promoted := *data
	promoted.TwoFADone = true
	w2 := httptest.NewRecorder()
	if err := store.Rotate(ctx, w2, requestWith(oldCookie), &promoted); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	newCookie := sessionCookie(t, w2)
	if newCookie.Value == oldID {
		t.Fatal("Rotate kept the old id")
	}

	if n, _ := client.Exists(ctx, keyPrefix+oldID).Result(); n != 0 {
		t.Error("old session still stored")
	}
	if stale, _ := store.Get(ctx, requestWith(oldCookie)); stale != nil {
		t.Error("old cookie still resolves")
	}
	got, err := store.Get(ctx, requestWith(newCookie))
	if err != nil || got == nil || !got.TwoFADone {
		t.Errorf("rotated session: got %+v, %v", got, err)
	}
}

func TestSessionRotateNoCookie(t *testing.T) {
	store, _ := testStore(t, false)
	err := store.Rotate(context.Background(), httptest.NewRecorder(), requestWith(nil), &Data{})
	if err != ErrNoSession {
		t.Errorf("Rotate without cookie: got %v, want ErrNoSession", err)
	}
}

func TestSessionDestroy(t *testing.T) {
	store, _ := testStore(t, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	store.Create(ctx, w, &Data{UserID: uuid.New(), Username: "leaving"})
	req := requestWith(sessionCookie(t, w))

	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if c := sessionCookie(t, w2); c.MaxAge != -1 {
		t.Errorf("cleared cookie MaxAge: got %d, want -1", c.MaxAge)
	}
	if data, _ := store.Get(ctx, req); data != nil {
		t.Error("session still resolves after Destroy")
	}

	if err := store.Destroy(ctx, httptest.NewRecorder(), requestWith(nil)); err != nil {
		t.Errorf("Destroy without cookie: %v", err)
	}
}

func TestSessionSecureCookie(t *testing.T) {
	store, _ := testStore(t, true)

	w := httptest.NewRecorder()
	if _, err := store.Create(context.Background(), w, &Data{UserID: uuid.New(), Username: "tls"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !sessionCookie(t, w).Secure {
		t.Error("expected Secure cookie")
	}
}
