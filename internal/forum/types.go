package forum

import "Babble/internal/core/feed"

// postPayload is the wire shape of a post as the backend serializes it.
// Converted to feed.Post at the boundary so core logic never sees nullable
// wire fields.
type postPayload struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	ImageURL          *string `json:"image_url"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	LikesCount        int     `json:"likes_count"`
	CommentsCount     int     `json:"comments_count"`
	FavoritesCount    *int    `json:"favorites_count"`
	CreatedAt         string  `json:"created_at"`
}

func (p postPayload) toDomain() feed.Post {
	post := feed.Post{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Username:      p.Username,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
	}
	if p.ImageURL != nil {
		post.ImageURL = *p.ImageURL
	}
	if p.ProfilePictureURL != nil {
		post.ProfilePictureURL = *p.ProfilePictureURL
	}
	// Older backend rows predate favorites and serialize null.
	if p.FavoritesCount != nil {
		post.FavoritesCount = *p.FavoritesCount
	}
	return post
}

// interactionPayload is one row of /users/{id}/likes or /favorites.
type interactionPayload struct {
	PostID int64 `json:"post_id"`
}

// LoginResult is the outcome of a successful login call.
type LoginResult struct {
	Token    string
	UserID   int64
	Username string
}

// loginPayload is the wire shape of the login response.
type loginPayload struct {
	Token string `json:"token"`
	User  struct {
		ID                int64   `json:"id"`
		Username          string  `json:"username"`
		ProfilePictureURL *string `json:"profile_picture_url"`
	} `json:"user"`
}

// errorPayload is the backend's error body shape.
type errorPayload struct {
	Message string `json:"message"`
}
