package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPostNotFound indicates the target post doesn't exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists indicates the username or email is already taken.
	ErrUserExists = errors.New("user already exists")
)

// User is a dev-server account.
type User struct {
	ID                int64
	Username          string
	Email             string
	PasswordHash      []byte
	ProfilePictureURL string
}

type postRecord struct {
	ID        int64
	AuthorID  int64
	Title     string
	Content   string
	ImageURL  string
	CreatedAt time.Time
}

// PostView is a post as the API serializes it, with author fields and
// counters joined in.
type PostView struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Content           string  `json:"content"`
	ImageURL          *string `json:"image_url"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	LikesCount        int     `json:"likes_count"`
	CommentsCount     int     `json:"comments_count"`
	FavoritesCount    int     `json:"favorites_count"`
	CreatedAt         string  `json:"created_at"`
}

// memStore is the dev server's in-memory database: maps guarded by one
// mutex. State lives as long as the process.
type memStore struct {
	mu           sync.RWMutex
	users        map[int64]*User
	byIdentifier map[string]int64
	posts        map[int64]*postRecord
	likes        map[int64]map[int64]struct{} // postID -> set of userIDs
	favorites    map[int64]map[int64]struct{}
	nextUserID   int64
	nextPostID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]*User),
		byIdentifier: make(map[string]int64),
		posts:        make(map[int64]*postRecord),
		likes:        make(map[int64]map[int64]struct{}),
		favorites:    make(map[int64]map[int64]struct{}),
	}
}

// AddUser registers an account with a bcrypt-hashed password.
func (m *memStore) AddUser(username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byIdentifier[strings.ToLower(username)]; taken {
		return nil, ErrUserExists
	}
	if _, taken := m.byIdentifier[strings.ToLower(email)]; taken {
		return nil, ErrUserExists
	}

	m.nextUserID++
	u := &User{
		ID:           m.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	m.users[u.ID] = u
	m.byIdentifier[strings.ToLower(username)] = u.ID
	m.byIdentifier[strings.ToLower(email)] = u.ID
	return u, nil
}

// Authenticate resolves an identifier (username or email) and checks the
// password.
func (m *memStore) Authenticate(identifier, password string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byIdentifier[strings.ToLower(identifier)]
	var u *User
	if ok {
		u = m.users[id]
	}
	m.mu.RUnlock()

	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreatePost stores a post and returns its API view.
func (m *memStore) CreatePost(authorID int64, title, content, imageURL string) (*PostView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[authorID]; !ok {
		return nil, ErrInvalidCredentials
	}

	m.nextPostID++
	p := &postRecord{
		ID:        m.nextPostID,
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
	m.posts[p.ID] = p
	view := m.viewLocked(p)
	return &view, nil
}

// ListPosts returns posts matching query in title or content, newest first.
// An empty query matches everything.
func (m *memStore) ListPosts(query string) []PostView {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make([]PostView, 0, len(m.posts))
	for _, p := range m.posts {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Content), q) {
			continue
		}
		views = append(views, m.viewLocked(p))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return views
}

// ToggleLike flips the (user, post) like and returns the resulting state.
func (m *memStore) ToggleLike(userID, postID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toggleLocked(m.likes, userID, postID)
}

// ToggleFavorite flips the (user, post) favorite and returns the resulting
// state.
func (m *memStore) ToggleFavorite(userID, postID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toggleLocked(m.favorites, userID, postID)
}

func (m *memStore) toggleLocked(table map[int64]map[int64]struct{}, userID, postID int64) (bool, error) {
	if _, ok := m.posts[postID]; !ok {
		return false, ErrPostNotFound
	}
	set := table[postID]
	if set == nil {
		set = make(map[int64]struct{})
		table[postID] = set
	}
	if _, on := set[userID]; on {
		delete(set, userID)
		return false, nil
	}
	set[userID] = struct{}{}
	return true, nil
}

// LikedPostIDs lists the posts a user has liked, ascending by ID.
func (m *memStore) LikedPostIDs(userID int64) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return collectIDs(m.likes, userID)
}

// FavoritedPostIDs lists the posts a user has favorited, ascending by ID.
func (m *memStore) FavoritedPostIDs(userID int64) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return collectIDs(m.favorites, userID)
}

func collectIDs(table map[int64]map[int64]struct{}, userID int64) []int64 {
	ids := make([]int64, 0)
	for postID, set := range table {
		if _, on := set[userID]; on {
			ids = append(ids, postID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) viewLocked(p *postRecord) PostView {
	view := PostView{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		LikesCount:     len(m.likes[p.ID]),
		FavoritesCount: len(m.favorites[p.ID]),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	if p.ImageURL != "" {
		u := p.ImageURL
		view.ImageURL = &u
	}
	if author := m.users[p.AuthorID]; author != nil {
		view.Username = author.Username
		if author.ProfilePictureURL != "" {
			u := author.ProfilePictureURL
			view.ProfilePictureURL = &u
		}
	}
	return view
}
