// Package main is the entry point for the StitchTales API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stitchtales/internal/auth"
	"stitchtales/internal/blog"
	"stitchtales/internal/cache"
	"stitchtales/internal/config"
	"stitchtales/internal/database"
	"stitchtales/internal/handlers"
	"stitchtales/internal/moderation"
	"stitchtales/internal/router"
	"stitchtales/internal/session"
	"stitchtales/internal/storage"
	"stitchtales/internal/store"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if !cfg.IsDev() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageBackend,
	)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword, 0)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	feeds := cache.NewFeedCache(valkeyClient, cache.DefaultFeedTTL)

	// Blob storage for covers and avatars, chosen once here.
	var (
		blobs      storage.Blob
		uploadsDir string
	)
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		blobs = s3
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		local, err := storage.NewLocal(cfg.LocalStorageDir, cfg.LocalStorageURL)
		if err != nil {
			slog.Error("failed to initialize local storage", "error", err)
			os.Exit(1)
		}
		blobs = local
		uploadsDir = local.Dir()
		slog.Info("local storage ready", "dir", local.Dir())
	}

	// Comment screening is optional.
	var screener moderation.Screener
	if cfg.ModerationAPIKey != "" {
		screener = moderation.NewOpenAI(cfg.ModerationAPIKey, cfg.ModerationBaseURL)
		slog.Info("comment screening enabled", "base_url", cfg.ModerationBaseURL)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	categoryStore := store.NewCategoryStore(db)
	tagStore := store.NewTagStore(db)
	likeStore := store.NewLikeStore(db)
	commentStore := store.NewCommentStore(db)

	// Services.
	accounts := blog.NewAccounts(userStore)
	query := blog.NewQuery(postStore, blobs)
	posts := blog.NewPosts(postStore, categoryStore, tagStore, likeStore, commentStore, blobs, feeds)
	taxonomy := blog.NewTaxonomy(categoryStore, tagStore, feeds)
	engagement := blog.NewEngagement(postStore, likeStore, commentStore, screener)
	dashboard := blog.NewDashboard(postStore, commentStore, likeStore, blobs)
	profiles := blog.NewProfiles(userStore, store.NewProfileStore(db), query, blobs)

	r := router.New(router.Options{
		Sessions:     sessionStore,
		Tokens:       tokens,
		Valkey:       valkeyClient,
		RateLimit:    cfg.RateLimitRequests,
		RateWindow:   cfg.RateLimitWindow,
		SecureCookie: secureCookies,
		UploadsDir:   uploadsDir,
		UploadsURL:   cfg.LocalStorageURL,
	}, router.Handlers{
		Auth:       handlers.NewAuth(accounts, sessionStore, tokens),
		Posts:      handlers.NewPosts(posts, query, engagement, accounts),
		Taxonomy:   handlers.NewTaxonomy(taxonomy, query, accounts),
		Account:    handlers.NewAccount(dashboard, profiles, query, accounts),
		Moderation: handlers.NewModeration(engagement, accounts),
		Catalog:    handlers.NewCatalog(store.NewCatalogStore(db), feeds, cfg.SiteURL),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
