package feed

import "context"

// API is the slice of the forum backend the feed engine consumes.
// internal/forum implements it; tests substitute fakes. The bearer token is
// passed per call because the session may change between calls (sign-out,
// token refresh) and must never be cached inside the engine.
type API interface {
	// FetchPosts lists posts filtered by query (empty = unfiltered).
	// Unauthenticated.
	FetchPosts(ctx context.Context, query string) ([]Post, error)

	// FetchUserLikes returns the IDs of posts the user has liked.
	FetchUserLikes(ctx context.Context, userID int64, token string) ([]int64, error)

	// FetchUserFavorites returns the IDs of posts the user has favorited.
	FetchUserFavorites(ctx context.Context, userID int64, token string) ([]int64, error)

	// ToggleLike flips the like server-side and returns the authoritative
	// liked state.
	ToggleLike(ctx context.Context, postID int64, token string) (liked bool, err error)

	// ToggleFavorite flips the favorite server-side and returns the
	// authoritative favorited state.
	ToggleFavorite(ctx context.Context, postID int64, token string) (favorited bool, err error)
}
