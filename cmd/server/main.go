package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/auth"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/config"
	appmw "github.com/zhenyuanliu98-svg/Vinobook/internal/middleware"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/notes"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/store"
)

// backend is what every note store must provide: user directory, note
// CRUD and a Close.
type backend interface {
	auth.UserStore
	notes.NoteStore
	Close() error
}

func main() {
	setupLogging()
	cfg := config.Load()
	ctx := context.Background()

	st, err := newBackend(ctx, cfg)
	if err != nil {
		slog.Error("storage init failed", "backend", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("storage initialized", "backend", cfg.Storage)

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		slog.Error("photo storage init failed", "backend", cfg.PhotoStore, "error", err)
		os.Exit(1)
	}

	key := []byte(cfg.SecretKey)
	if len(key) == 0 {
		key = auth.NewRandomKey()
		slog.Warn("SECRET_KEY not set; generated a random signing key, tokens will not survive a restart")
	}
	tokens := auth.NewTokenManager(key, auth.TokenTTL)

	authHandler := auth.NewHandler(st, tokens)
	noteHandler := notes.NewHandler(st, photos)

	r := chi.NewRouter()
	r.Use(appmw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(appmw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Wine Notes API","version":"2.0"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/auth/demo-login", authHandler.DemoLogin)
	r.Get("/uploads/{filename}", noteHandler.ServePhoto)

	r.Route("/api", func(r chi.Router) {
		r.Use(appmw.RequireAuth(tokens))
		r.Get("/notes", noteHandler.List)
		r.Post("/notes", noteHandler.Create)
		r.Get("/notes/{id}", noteHandler.Get)
		r.Put("/notes/{id}", noteHandler.Update)
		r.Delete("/notes/{id}", noteHandler.Delete)
		r.Post("/upload-photo/{id}", noteHandler.UploadPhoto)
		r.Delete("/delete-photo/{id}/{filename}", noteHandler.DeletePhoto)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func newBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.Storage {
	case "json":
		return store.NewJSONStore(cfg.DataFile)
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config) (notes.PhotoStore, error) {
	switch cfg.PhotoStore {
	case "minio":
		return store.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	case "local":
		return store.NewLocalPhotoStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown photo store %q", cfg.PhotoStore)
	}
}
