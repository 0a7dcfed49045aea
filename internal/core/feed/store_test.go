package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPosts() []Post {
	return []Post{
		{ID: 5, Title: "first", LikesCount: 3, FavoritesCount: 1},
		{ID: 9, Title: "second", LikesCount: 0, FavoritesCount: 0},
		{ID: 10, Title: "third", LikesCount: 7, FavoritesCount: 2},
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), []int64{5, 9}, []int64{9})

	assert.Equal(t, 3, s.Len())

	p, ok := s.Get(5)
	require.True(t, ok)
	assert.Equal(t, "first", p.Title)

	assert.Equal(t, Flags{Liked: true}, s.Flags(5))
	assert.Equal(t, Flags{Liked: true, Favorited: true}, s.Flags(9))
	assert.Equal(t, Flags{}, s.Flags(10))

	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), []int64{5}, nil)
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Posts())
	assert.Empty(t, s.Interactions())
}

func TestStore_ToggleLike(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), nil, nil)

	prev, ok := s.ToggleLike(5)
	require.True(t, ok)
	assert.Equal(t, Flags{}, prev)

	p, _ := s.Get(5)
	assert.Equal(t, 4, p.LikesCount)
	assert.True(t, s.Flags(5).Liked)

	// Toggling back restores the original count.
	prev, ok = s.ToggleLike(5)
	require.True(t, ok)
	assert.True(t, prev.Liked)

	p, _ = s.Get(5)
	assert.Equal(t, 3, p.LikesCount)
	assert.False(t, s.Flags(5).Liked)
}

func TestStore_ToggleLike_MissingPostIsNoop(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), nil, nil)

	_, ok := s.ToggleLike(42)
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestStore_CountFloorsAtZero(t *testing.T) {
	s := NewStore()
	// Server data can be inconsistent: liked flag set while the count is
	// already zero.
	s.Replace(testPosts(), []int64{9}, []int64{9})

	for i := 0; i < 3; i++ {
		s.SetLiked(9, false)
		s.SetFavorited(9, false)
		p, _ := s.Get(9)
		assert.Equal(t, 0, p.LikesCount, "likes count must never go negative")
		assert.Equal(t, 0, p.FavoritesCount, "favorites count must never go negative")
		s.SetLiked(9, true)
		s.SetFavorited(9, true)
	}
}

func TestStore_SetLikedIdempotent(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), nil, nil)

	s.SetLiked(10, true)
	s.SetLiked(10, true)
	s.SetLiked(10, true)

	p, _ := s.Get(10)
	assert.Equal(t, 8, p.LikesCount, "repeated sets of the same value adjust the count once")
}

func TestStore_ToggleFavorite(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), nil, []int64{10})

	prev, ok := s.ToggleFavorite(10)
	require.True(t, ok)
	assert.True(t, prev.Favorited)

	p, _ := s.Get(10)
	assert.Equal(t, 1, p.FavoritesCount)
	assert.False(t, s.Flags(10).Favorited)
}

func TestStore_PostsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), nil, nil)

	posts := s.Posts()
	posts[0].LikesCount = 999

	p, _ := s.Get(5)
	assert.Equal(t, 3, p.LikesCount, "mutating the returned slice must not touch the snapshot")
}

func TestStore_ClearInteractions(t *testing.T) {
	s := NewStore()
	s.Replace(testPosts(), []int64{5}, []int64{9})
	s.ClearInteractions()

	assert.Equal(t, 3, s.Len(), "posts stay browsable")
	assert.Empty(t, s.Interactions())
}
