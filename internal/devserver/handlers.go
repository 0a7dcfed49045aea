package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20 // matches the real backend's 10MB cap

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError uses the backend's {"message": ...} error shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// handleLogin implements POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Identifier and password are required.")
		return
	}

	user, err := s.store.Authenticate(req.Identifier, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := s.auth.issue(user)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	var profileURL *string
	if user.ProfilePictureURL != "" {
		u := user.ProfilePictureURL
		profileURL = &u
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":                  user.ID,
			"username":            user.Username,
			"profile_picture_url": profileURL,
		},
	})
}

// handleListPosts implements GET /posts?q=.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListPosts(r.URL.Query().Get("q")))
}

// handleCreatePost implements POST /posts.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string  `json:"title"`
		Content  string  `json:"content"`
		ImageURL *string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Title and content are required.")
		return
	}

	imageURL := ""
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	view, err := s.store.CreatePost(userIDFrom(r), req.Title, req.Content, imageURL)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unknown user.")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func postIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
}

// handleToggleLike implements POST /posts/{postID}/like.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post id.")
		return
	}
	liked, err := s.store.ToggleLike(userIDFrom(r), postID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// handleToggleFavorite implements POST /posts/{postID}/favorite.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post id.")
		return
	}
	favorited, err := s.store.ToggleFavorite(userIDFrom(r), postID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// requireSelf rejects requests for another user's interaction listings.
func requireSelf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	requested, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id.")
		return 0, false
	}
	if requested != userIDFrom(r) {
		writeError(w, http.StatusForbidden, "Cannot read another user's interactions.")
		return 0, false
	}
	return requested, true
}

// handleUserLikes implements GET /users/{userID}/likes.
func (s *Server) handleUserLikes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSelf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, interactionRows(s.store.LikedPostIDs(userID)))
}

// handleUserFavorites implements GET /users/{userID}/favorites.
func (s *Server) handleUserFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSelf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, interactionRows(s.store.FavoritedPostIDs(userID)))
}

func interactionRows(ids []int64) []map[string]int64 {
	rows := make([]map[string]int64, len(ids))
	for i, id := range ids {
		rows[i] = map[string]int64{"post_id": id}
	}
	return rows
}

// handleUploadImage implements POST /upload/post-image, multipart field
// "postImage". Only image content is accepted, capped at 10MB.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("postImage")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds the 10MB limit.")
			return
		}
		writeError(w, http.StatusBadRequest, "No image was sent.")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("failed to close upload", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read upload.")
		return
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		writeError(w, http.StatusBadRequest, "Only image files are allowed.")
		return
	}

	dir := filepath.Join(s.uploadDir, "post_images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create upload dir", "dir", dir, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("post_%d_%s%s", userIDFrom(r), uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		s.logger.Error("failed to store upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Image uploaded successfully.",
		"imageUrl": "/uploads/post_images/" + name,
	})
}
