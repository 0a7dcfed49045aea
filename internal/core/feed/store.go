package feed

import "sync"

// Store owns the feed snapshot: the ordered post list, an ID index for O(1)
// patching, and the session user's interaction flags. The snapshot is
// replaced wholesale on sync and patched in place on toggles; snapshot and
// flags always change together under one lock so no caller can observe new
// posts paired with stale flags.
type Store struct {
	mu    sync.RWMutex
	posts []Post
	byID  map[int64]int
	index *InteractionIndex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:  make(map[int64]int),
		index: NewInteractionIndex(),
	}
}

// Replace swaps in a new snapshot and rebuilds the interaction index from
// the given ID sequences as a single transition.
func (s *Store) Replace(posts []Post, likedIDs, favoritedIDs []int64) {
	byID := make(map[int64]int, len(posts))
	for i, p := range posts {
		byID[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
	s.byID = byID
	s.index.Rebuild(likedIDs, favoritedIDs)
}

// Reset clears both the snapshot and the flags. Used when a sync fails
// fatally: an empty baseline is better than stale data next to an error.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = nil
	s.byID = make(map[int64]int)
	s.index.Clear()
}

// Posts returns a copy of the ordered snapshot.
func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Get returns the post with the given ID, if it is in the snapshot.
func (s *Store) Get(postID int64) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[postID]
	if !ok {
		return Post{}, false
	}
	return s.posts[i], true
}

// Flags returns the session user's interaction flags for a post.
func (s *Store) Flags(postID int64) Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Flags(postID)
}

// Len reports the number of posts in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// ToggleLike optimistically flips the liked flag for a post and adjusts its
// like count by +1 or -1 (floored at zero). Returns the pre-toggle flags so
// the caller can roll back if the confirmation call fails. If the post is
// not in the snapshot (e.g. removed by a concurrent search) it is a no-op
// and ok is false.
func (s *Store) ToggleLike(postID int64) (prev Flags, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.byID[postID]
	if !found {
		return Flags{}, false
	}
	prev = s.index.Flags(postID)
	s.setLikedLocked(i, postID, !prev.Liked)
	return prev, true
}

// ToggleFavorite mirrors ToggleLike for the favorited flag and count.
func (s *Store) ToggleFavorite(postID int64) (prev Flags, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.byID[postID]
	if !found {
		return Flags{}, false
	}
	prev = s.index.Flags(postID)
	s.setFavoritedLocked(i, postID, !prev.Favorited)
	return prev, true
}

// SetLiked forces the liked flag to the given value, adjusting the like
// count for the transition. Idempotent when the flag already matches. Used
// both for the authority-wins correction (server response disagrees with
// the optimistic guess) and for rollback after a failed confirmation.
func (s *Store) SetLiked(postID int64, liked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.byID[postID]
	if !found {
		return
	}
	s.setLikedLocked(i, postID, liked)
}

// SetFavorited mirrors SetLiked for the favorited flag and count.
func (s *Store) SetFavorited(postID int64, favorited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.byID[postID]
	if !found {
		return
	}
	s.setFavoritedLocked(i, postID, favorited)
}

func (s *Store) setLikedLocked(i int, postID int64, liked bool) {
	cur := s.index.Flags(postID)
	if cur.Liked == liked {
		return
	}
	s.index.SetFlag(postID, KindLiked, liked)
	if liked {
		s.posts[i].LikesCount++
	} else if s.posts[i].LikesCount > 0 {
		s.posts[i].LikesCount--
	}
}

func (s *Store) setFavoritedLocked(i int, postID int64, favorited bool) {
	cur := s.index.Flags(postID)
	if cur.Favorited == favorited {
		return
	}
	s.index.SetFlag(postID, KindFavorited, favorited)
	if favorited {
		s.posts[i].FavoritesCount++
	} else if s.posts[i].FavoritesCount > 0 {
		s.posts[i].FavoritesCount--
	}
}

// ClearInteractions discards all flags while keeping the post list, e.g. on
// sign-out: the feed stays browsable but per-user state is gone.
func (s *Store) ClearInteractions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Clear()
}

// Interactions exposes the underlying index for read-only inspection.
func (s *Store) Interactions() map[int64]Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Snapshot()
}
