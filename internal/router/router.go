// Package router sets up all HTTP routes and middleware chains for the
// StitchTales API. Public reads, authenticated writes and admin or moderator
// routes share one chi tree; role checks live in the services.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"stitchtales/internal/auth"
	"stitchtales/internal/handlers"
	"stitchtales/internal/middleware"
	"stitchtales/internal/session"
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Auth       *handlers.Auth
	Posts      *handlers.Posts
	Taxonomy   *handlers.Taxonomy
	Account    *handlers.Account
	Moderation *handlers.Moderation
	Catalog    *handlers.Catalog
}

// Options carries the infrastructure New wires into the middleware chain.
type Options struct {
	Sessions     *session.Store
	Tokens       *auth.Tokens
	Valkey       *redis.Client // rate limit counters; nil disables limiting
	RateLimit    int           // requests per window, per client and scope
	RateWindow   time.Duration
	SecureCookie bool
	UploadsDir   string // served under UploadsURL when set (local storage)
	UploadsURL   string
}

// New creates and returns the configured Chi router.
func New(opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(opts.SecureCookie))

	r.Get("/health", healthHandler)
	r.Get("/sitemap.xml", h.Catalog.Sitemap)
	r.Get("/robots.txt", h.Catalog.Robots)

	if opts.UploadsDir != "" && opts.UploadsURL != "" {
		prefix := opts.UploadsURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(opts.UploadsDir))))
	}

	// Credential endpoints and engagement writes get separate budgets.
	authLimit := limiter(opts, "auth")
	engageLimit := limiter(opts, "engagement")

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(opts.Sessions, opts.Tokens))
		r.Use(middleware.NewCSRF(opts.SecureCookie))

		r.Route("/auth", func(r chi.Router) {
			r.Method(http.MethodPost, "/register", authLimit(h.Auth.Register))
			r.Method(http.MethodPost, "/login", authLimit(h.Auth.Login))
			r.Method(http.MethodPost, "/token", authLimit(h.Auth.Token))
			r.Method(http.MethodPost, "/2fa/verify", authLimit(h.Auth.Verify2FA))
			r.Post("/logout", h.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/2fa/setup", h.Auth.Setup2FA)
				r.Post("/2fa/enable", h.Auth.Enable2FA)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.Posts.List)
			r.Get("/{slug}", h.Posts.Detail)
			r.Get("/{slug}/related", h.Posts.Related)
			r.Get("/{slug}/comments", h.Posts.Comments)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Posts.Create)
				r.Put("/{slug}", h.Posts.Update)
				r.Delete("/{slug}", h.Posts.Delete)
				r.Put("/{slug}/cover", h.Posts.SetCover)
				r.Method(http.MethodPost, "/{slug}/like", engageLimit(h.Posts.Like))
				r.Method(http.MethodPost, "/{slug}/comments", engageLimit(h.Posts.AddComment))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Taxonomy.ListCategories)
			r.Get("/{slug}", h.Taxonomy.Category)
			r.Get("/{slug}/posts", h.Taxonomy.CategoryPosts)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Taxonomy.CreateCategory)
				r.Put("/{id}", h.Taxonomy.UpdateCategory)
				r.Delete("/{id}", h.Taxonomy.DeleteCategory)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.Taxonomy.ListTags)
			r.Get("/{slug}", h.Taxonomy.Tag)
			r.Get("/{slug}/posts", h.Taxonomy.TagPosts)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Taxonomy.CreateTag)
				r.Put("/{id}", h.Taxonomy.UpdateTag)
				r.Delete("/{id}", h.Taxonomy.DeleteTag)
			})
		})

		r.Get("/authors/{username}", h.Account.Author)

		// Signed-in user's own area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/dashboard", h.Account.Dashboard)
			r.Get("/me/posts", h.Account.MyPosts)
			r.Get("/profile", h.Account.Profile)
			r.Put("/profile", h.Account.UpdateProfile)
			r.Put("/profile/avatar", h.Account.SetAvatar)
		})

		r.Route("/moderation/comments", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.Moderation.Pending)
			r.Post("/{id}/approve", h.Moderation.Approve)
			r.Delete("/{id}", h.Moderation.Reject)
		})
	})

	return r
}

// limiter returns a wrapper applying the scope's rate limit, or a
// pass-through when limiting is disabled.
func limiter(opts Options, scope string) func(http.HandlerFunc) http.Handler {
	if opts.Valkey == nil || opts.RateLimit <= 0 || opts.RateWindow <= 0 {
		return func(next http.HandlerFunc) http.Handler { return next }
	}
	rl := middleware.NewRateLimiter(opts.Valkey, scope, opts.RateLimit, opts.RateWindow)
	return func(next http.HandlerFunc) http.Handler { return rl.Middleware(next) }
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
