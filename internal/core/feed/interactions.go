package feed

import "sync"

// FlagKind selects which interaction flag a mutation targets.
type FlagKind int

const (
	KindLiked FlagKind = iota
	KindFavorited
)

// InteractionIndex maps post IDs to the current user's interaction flags.
// Only the session user's flags are held; a missing entry reads as
// {Liked: false, Favorited: false} but is never stored explicitly, so
// "unknown" and "known false" stay distinguishable to callers that iterate.
type InteractionIndex struct {
	mu    sync.RWMutex
	flags map[int64]Flags
}

// NewInteractionIndex creates an empty index.
func NewInteractionIndex() *InteractionIndex {
	return &InteractionIndex{flags: make(map[int64]Flags)}
}

// Rebuild replaces the whole index from the two ID sequences returned by the
// backend. IDs appearing in both sequences get both flags set.
func (ix *InteractionIndex) Rebuild(likedIDs, favoritedIDs []int64) {
	next := make(map[int64]Flags, len(likedIDs)+len(favoritedIDs))
	for _, id := range likedIDs {
		f := next[id]
		f.Liked = true
		next[id] = f
	}
	for _, id := range favoritedIDs {
		f := next[id]
		f.Favorited = true
		next[id] = f
	}

	ix.mu.Lock()
	ix.flags = next
	ix.mu.Unlock()
}

// Flags returns the flags for a post. Absent entries read as the zero value.
func (ix *InteractionIndex) Flags(postID int64) Flags {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.flags[postID]
}

// SetFlag flips a single flag. Pure local state change, idempotent, no
// network effect. Entries that end up all-false are pruned so absence keeps
// meaning "not interacted".
func (ix *InteractionIndex) SetFlag(postID int64, kind FlagKind, value bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	f := ix.flags[postID]
	switch kind {
	case KindLiked:
		f.Liked = value
	case KindFavorited:
		f.Favorited = value
	}

	if f == (Flags{}) {
		delete(ix.flags, postID)
		return
	}
	ix.flags[postID] = f
}

// Clear discards all flags, e.g. on sign-out or after a failed sync.
func (ix *InteractionIndex) Clear() {
	ix.mu.Lock()
	ix.flags = make(map[int64]Flags)
	ix.mu.Unlock()
}

// Snapshot returns a copy of all stored entries.
func (ix *InteractionIndex) Snapshot() map[int64]Flags {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[int64]Flags, len(ix.flags))
	for id, f := range ix.flags {
		out[id] = f
	}
	return out
}

// Len reports how many posts have at least one flag set.
func (ix *InteractionIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.flags)
}
