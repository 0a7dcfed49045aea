// Package devserver is an in-process implementation of the forum backend's
// wire contract: login, post listing and creation, like/favorite toggles,
// per-user interaction listings and multipart image upload. It backs the
// CLI's serve command for local development and the engine's integration
// tests, so nothing in this repository needs a remote backend to run.
package devserver

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server hosts the dev backend.
type Server struct {
	store     *memStore
	auth      *tokenIssuer
	uploadDir string
	logger    *slog.Logger
	router    chi.Router
}

// New creates a dev server. Uploaded images land under uploadDir; secret
// signs the bearer tokens.
func New(uploadDir string, secret []byte, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:     newMemStore(),
		auth:      &tokenIssuer{secret: secret},
		uploadDir: uploadDir,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Post("/auth/login", s.handleLogin)
	r.Get("/posts", s.handleListPosts)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/posts", s.handleCreatePost)
		r.Post("/posts/{postID}/like", s.handleToggleLike)
		r.Post("/posts/{postID}/favorite", s.handleToggleFavorite)
		r.Get("/users/{userID}/likes", s.handleUserLikes)
		r.Get("/users/{userID}/favorites", s.handleUserFavorites)
		r.Post("/upload/post-image", s.handleUploadImage)
	})

	// Serve stored images back, same URL shape the real backend uses.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(filepath.Clean(uploadDir)))))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.router = r
	return s
}

// Router returns the HTTP handler for mounting or httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Seed registers a dev account, returning the created user.
func (s *Server) Seed(username, email, password string) (*User, error) {
	return s.store.AddUser(username, email, password)
}
