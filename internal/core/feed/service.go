package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"Babble/internal/session"
)

// SyncResult is the outcome of a successful sync: the published snapshot and
// flags, copied out of the store. Degraded marks syncs whose interaction
// fetches failed and resolved to an empty index.
type SyncResult struct {
	Posts    []Post
	Flags    map[int64]Flags
	Degraded bool
}

// Service drives the feed: it merges the post list with the session user's
// interaction state, publishes both atomically into the Store, and runs the
// optimistic toggle cycle with authority-wins correction.
//
// Re-entrancy: each Sync call takes a generation number; a call that
// finishes after a newer call has started discards its result instead of
// applying it, which substitutes for request cancellation.
type Service struct {
	api           API
	session       session.Reader
	store         *Store
	logger        *slog.Logger
	onAuthExpired func()

	generation atomic.Uint64
	applyMu    sync.Mutex
}

// NewService creates a feed service. onAuthExpired is invoked whenever an
// authenticated call comes back 401/403; it must terminate the session.
func NewService(api API, sess session.Reader, logger *slog.Logger, onAuthExpired func()) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:           api,
		session:       sess,
		store:         NewStore(),
		logger:        logger,
		onAuthExpired: onAuthExpired,
	}
}

// Store returns the store the service publishes into. The rendering layer
// reads from it; it is safe for concurrent use.
func (s *Service) Store() *Store {
	return s.store
}

// Sync fetches the post list filtered by query and, when a session is
// present, the user's likes and favorites, then publishes the merged result.
//
// Guarantees:
//   - the post-list fetch always runs; its failure is fatal and resets the
//     store to an empty baseline rather than leaving stale data visible;
//   - the likes and favorites fetches are started before either is awaited
//     so their latencies overlap; either failing is non-fatal and degrades
//     to "no interactions known" with a logged warning;
//   - the snapshot and flags are replaced as one transition;
//   - a result arriving after a newer Sync has been issued is discarded and
//     reported as ErrSuperseded.
func (s *Service) Sync(ctx context.Context, query string) (*SyncResult, error) {
	gen := s.generation.Add(1)

	posts, err := s.api.FetchPosts(ctx, query)
	if err != nil {
		s.applyMu.Lock()
		defer s.applyMu.Unlock()
		if s.generation.Load() != gen {
			return nil, ErrSuperseded
		}
		s.store.Reset()
		return nil, fmt.Errorf("%w: %w", ErrFetchPosts, err)
	}

	likedIDs, favoritedIDs, degraded := s.fetchInteractions(ctx)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if s.generation.Load() != gen {
		return nil, ErrSuperseded
	}
	s.store.Replace(posts, likedIDs, favoritedIDs)

	return &SyncResult{
		Posts:    s.store.Posts(),
		Flags:    s.store.Interactions(),
		Degraded: degraded,
	}, nil
}

// fetchInteractions loads the session user's liked and favorited post IDs.
// Skipped silently when no session is present. Both requests are in flight
// before either is awaited. If either fails the sync proceeds with an empty
// index: interaction state is cosmetic next to the post list itself.
func (s *Service) fetchInteractions(ctx context.Context) (likedIDs, favoritedIDs []int64, degraded bool) {
	userID, hasUser := s.session.UserID()
	token, hasToken := s.session.Token()
	if !hasUser || !hasToken {
		return nil, nil, false
	}

	var (
		wg      sync.WaitGroup
		likeErr error
		favErr  error
		likes   []int64
		favs    []int64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		likes, likeErr = s.api.FetchUserLikes(ctx, userID, token)
	}()
	go func() {
		defer wg.Done()
		favs, favErr = s.api.FetchUserFavorites(ctx, userID, token)
	}()
	wg.Wait()

	if likeErr != nil || favErr != nil {
		s.logger.Warn("interaction fetch failed, continuing without flags",
			"user_id", userID,
			"likes_error", likeErr,
			"favorites_error", favErr,
		)
		return nil, nil, true
	}
	return likes, favs, false
}

// ToggleLike optimistically flips the like on a post, confirms it with the
// backend, and reconciles: the server's liked value always wins, a failed
// call rolls the flip back, and 401/403 additionally terminates the session.
// Toggling a post that is no longer in the snapshot is a no-op.
func (s *Service) ToggleLike(ctx context.Context, postID int64) error {
	token, ok := s.session.Token()
	if !ok {
		return ErrAuthRequired
	}

	prev, ok := s.store.ToggleLike(postID)
	if !ok {
		return nil
	}

	liked, err := s.api.ToggleLike(ctx, postID, token)
	if err != nil {
		s.store.SetLiked(postID, prev.Liked)
		return s.toggleFailure(err, "like", postID)
	}

	// Authority wins: correct the optimistic guess if the server disagrees.
	s.store.SetLiked(postID, liked)
	return nil
}

// ToggleFavorite mirrors ToggleLike for the favorited flag.
func (s *Service) ToggleFavorite(ctx context.Context, postID int64) error {
	token, ok := s.session.Token()
	if !ok {
		return ErrAuthRequired
	}

	prev, ok := s.store.ToggleFavorite(postID)
	if !ok {
		return nil
	}

	favorited, err := s.api.ToggleFavorite(ctx, postID, token)
	if err != nil {
		s.store.SetFavorited(postID, prev.Favorited)
		return s.toggleFailure(err, "favorite", postID)
	}

	s.store.SetFavorited(postID, favorited)
	return nil
}

func (s *Service) toggleFailure(err error, kind string, postID int64) error {
	s.logger.Warn("toggle rolled back", "kind", kind, "post_id", postID, "error", err)
	if isAuthExpired(err) {
		s.expireSession()
	}
	return fmt.Errorf("%w: %w", ErrToggleFailed, err)
}

// expireSession notifies the owner so the session is terminated and the
// user re-authenticates. The rolled-back flags stay visible until the owner
// clears them or the next sync rebuilds the index without a token.
func (s *Service) expireSession() {
	if s.onAuthExpired != nil {
		s.onAuthExpired()
	}
}
