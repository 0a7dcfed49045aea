// Package forum is the typed HTTP client for the forum backend. It shapes
// requests and responses for the handful of endpoints the engine uses and
// converts every failure to a typed error at the boundary.
package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"Babble/internal/core/feed"
)

const (
	requestTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// Client calls the forum backend. Reads are retried on transient failures;
// writes are never retried, since a replayed toggle or create would mutate
// state twice.
type Client struct {
	baseURL string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
	logger  *slog.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	reads := retryablehttp.NewClient()
	reads.RetryMax = 3
	reads.Logger = nil
	reads.HTTPClient.Timeout = requestTimeout
	// Surface the final 5xx response instead of a "giving up" error so it
	// maps to a StatusError like every other failure.
	reads.ErrorHandler = retryablehttp.PassthroughErrorHandler

	writes := retryablehttp.NewClient()
	writes.RetryMax = 0
	writes.Logger = nil
	writes.HTTPClient.Timeout = requestTimeout
	writes.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		reads:   reads,
		writes:  writes,
		logger:  logger,
	}
}

// Login authenticates with the backend and returns the bearer token plus the
// user record to seed the session store.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	payload := map[string]string{"identifier": identifier, "password": password}
	var result loginPayload
	if err := c.postJSON(ctx, "login", "/auth/login", "", payload, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: backend returned no token")
	}
	return &LoginResult{
		Token:    result.Token,
		UserID:   result.User.ID,
		Username: result.User.Username,
	}, nil
}

// FetchPosts lists posts filtered by query. Unauthenticated.
func (c *Client) FetchPosts(ctx context.Context, query string) ([]feed.Post, error) {
	path := "/posts?q=" + url.QueryEscape(query)
	var payload []postPayload
	if err := c.get(ctx, "fetchPosts", path, "", &payload); err != nil {
		return nil, err
	}
	posts := make([]feed.Post, len(payload))
	for i, p := range payload {
		posts[i] = p.toDomain()
	}
	return posts, nil
}

// FetchUserLikes returns the IDs of posts the user has liked.
func (c *Client) FetchUserLikes(ctx context.Context, userID int64, token string) ([]int64, error) {
	return c.fetchInteractionIDs(ctx, "fetchUserLikes", fmt.Sprintf("/users/%d/likes", userID), token)
}

// FetchUserFavorites returns the IDs of posts the user has favorited.
func (c *Client) FetchUserFavorites(ctx context.Context, userID int64, token string) ([]int64, error) {
	return c.fetchInteractionIDs(ctx, "fetchUserFavorites", fmt.Sprintf("/users/%d/favorites", userID), token)
}

func (c *Client) fetchInteractionIDs(ctx context.Context, op, path, token string) ([]int64, error) {
	var payload []interactionPayload
	if err := c.get(ctx, op, path, token, &payload); err != nil {
		return nil, err
	}
	ids := make([]int64, len(payload))
	for i, row := range payload {
		ids[i] = row.PostID
	}
	return ids, nil
}

// ToggleLike flips the like server-side and returns the authoritative state.
func (c *Client) ToggleLike(ctx context.Context, postID int64, token string) (bool, error) {
	var result struct {
		Liked bool `json:"liked"`
	}
	path := fmt.Sprintf("/posts/%d/like", postID)
	if err := c.postJSON(ctx, "toggleLike", path, token, struct{}{}, &result); err != nil {
		return false, err
	}
	return result.Liked, nil
}

// ToggleFavorite flips the favorite server-side and returns the
// authoritative state.
func (c *Client) ToggleFavorite(ctx context.Context, postID int64, token string) (bool, error) {
	var result struct {
		Favorited bool `json:"favorited"`
	}
	path := fmt.Sprintf("/posts/%d/favorite", postID)
	if err := c.postJSON(ctx, "toggleFavorite", path, token, struct{}{}, &result); err != nil {
		return false, err
	}
	return result.Favorited, nil
}

// UploadImage uploads image bytes as a multipart form and returns the stored
// image URL. The backend only accepts image/* content.
func (c *Client) UploadImage(ctx context.Context, token string, data []byte, filename string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="postImage"; filename=%q`, filename))
	header.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("uploadImage: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("uploadImage: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("uploadImage: build form: %w", err)
	}

	var result struct {
		ImageURL string `json:"imageUrl"`
	}
	err = c.do(ctx, c.writes, "uploadImage", http.MethodPost, "/upload/post-image", token, w.FormDataContentType(), buf.Bytes(), &result)
	if err != nil {
		return "", err
	}
	if result.ImageURL == "" {
		return "", fmt.Errorf("uploadImage: backend returned no image URL")
	}
	return result.ImageURL, nil
}

// CreatePost creates the post record. imageURL is nil for text-only posts.
func (c *Client) CreatePost(ctx context.Context, token, title, content string, imageURL *string) (*feed.Post, error) {
	payload := struct {
		Title    string  `json:"title"`
		Content  string  `json:"content"`
		ImageURL *string `json:"image_url"`
	}{Title: title, Content: content, ImageURL: imageURL}

	var result postPayload
	if err := c.postJSON(ctx, "createPost", "/posts", token, payload, &result); err != nil {
		return nil, err
	}
	post := result.toDomain()
	return &post, nil
}

func (c *Client) get(ctx context.Context, op, path, token string, out any) error {
	return c.do(ctx, c.reads, op, http.MethodGet, path, token, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, op, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, c.writes, op, http.MethodPost, path, token, "application/json", body, out)
}

func (c *Client) do(ctx context.Context, rc *retryablehttp.Client, op, method, path, token, contentType string, body []byte, out any) error {
	var rawBody any
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, rawBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := rc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "op", op, "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// readErrorMessage extracts the backend's {"message": ...} error body, falling
// back to the raw text for non-JSON errors.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
