package feed

// Post represents a forum post as shown in the feed.
// Posts are owned by the backend; the engine never invents identifiers or
// counters, it only patches counts in response to user interactions.
type Post struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	ImageURL          string `json:"imageUrl,omitempty"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	LikesCount        int    `json:"likesCount"`
	CommentsCount     int    `json:"commentsCount"`
	FavoritesCount    int    `json:"favoritesCount"`
	CreatedAt         string `json:"createdAt,omitempty"`
}

// Flags is the current user's interaction state with a single post.
// The zero value means "no known interaction".
type Flags struct {
	Liked     bool `json:"liked"`
	Favorited bool `json:"favorited"`
}
