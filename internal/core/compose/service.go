// Package compose sequences post creation: validate the draft, optionally
// upload the attached image, then create the post record. The two phases are
// strictly ordered; an upload failure aborts the whole operation so a post
// is never created without the image the user attached.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"Babble/internal/core/feed"
	"Babble/internal/session"
)

// Draft is the transient composition state. It is never partially saved:
// the caller keeps it for resubmission on failure and discards it on
// success.
type Draft struct {
	Title   string
	Content string
}

// Validate checks the required fields after trimming.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", "required")
	}
	if strings.TrimSpace(d.Content) == "" {
		return NewValidationError("content", "required")
	}
	return nil
}

// Image is a locally selected image to attach to the post.
type Image struct {
	Data     []byte
	Filename string
}

// API is the slice of the forum backend the pipeline consumes.
type API interface {
	// UploadImage stores the image and returns its URL.
	UploadImage(ctx context.Context, token string, data []byte, filename string) (string, error)

	// CreatePost creates the post record. imageURL is nil for text-only
	// posts.
	CreatePost(ctx context.Context, token, title, content string, imageURL *string) (*feed.Post, error)
}

// Service runs the creation pipeline.
type Service struct {
	api           API
	session       session.Reader
	logger        *slog.Logger
	onAuthExpired func()
}

// NewService creates a compose service. onAuthExpired is invoked when the
// create call comes back 401/403.
func NewService(api API, sess session.Reader, logger *slog.Logger, onAuthExpired func()) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:           api,
		session:       sess,
		logger:        logger,
		onAuthExpired: onAuthExpired,
	}
}

// CreatePost runs the pipeline for one draft.
//
// Order of checks matters: validation and the auth-presence check happen
// locally before any network call. With an image attached, the upload is
// phase one and its failure aborts the operation; the create call is phase
// two and uses the same token. On success the caller re-syncs the feed to
// obtain the authoritative post rather than trusting the returned record's
// counters.
func (s *Service) CreatePost(ctx context.Context, draft Draft, image *Image) (*feed.Post, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	token, ok := s.session.Token()
	if !ok {
		return nil, ErrAuthRequired
	}

	var imageURL *string
	if image != nil {
		url, err := s.api.UploadImage(ctx, token, image.Data, image.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		s.logger.Debug("post image uploaded", "image_url", url)
		imageURL = &url
	}

	post, err := s.api.CreatePost(ctx, token, strings.TrimSpace(draft.Title), strings.TrimSpace(draft.Content), imageURL)
	if err != nil {
		// The uploaded image, if any, is left in place; the backend owns
		// orphan cleanup.
		if isAuthExpired(err) && s.onAuthExpired != nil {
			s.onAuthExpired()
		}
		return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	return post, nil
}
