package compose

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Babble/internal/core/feed"
	"Babble/internal/session"
)

type fakeAPI struct {
	uploadImage func(ctx context.Context, token string, data []byte, filename string) (string, error)
	createPost  func(ctx context.Context, token, title, content string, imageURL *string) (*feed.Post, error)

	uploadCalls int
	createCalls int
}

func (f *fakeAPI) UploadImage(ctx context.Context, token string, data []byte, filename string) (string, error) {
	f.uploadCalls++
	return f.uploadImage(ctx, token, data, filename)
}

func (f *fakeAPI) CreatePost(ctx context.Context, token, title, content string, imageURL *string) (*feed.Post, error) {
	f.createCalls++
	return f.createPost(ctx, token, title, content, imageURL)
}

type authErr struct{ code int }

func (e *authErr) Error() string     { return "status error" }
func (e *authErr) AuthExpired() bool { return e.code == 401 || e.code == 403 }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedInSession(t *testing.T) *session.MemoryStore {
	t.Helper()
	sess := session.NewMemoryStore()
	require.NoError(t, sess.Set(1, "tester", "token-1"))
	return sess
}

func TestCreatePost_ValidatesBeforeAnyNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, signedInSession(t), testLogger(), nil)

	cases := []Draft{
		{Title: "", Content: "body"},
		{Title: "   ", Content: "body"},
		{Title: "title", Content: ""},
		{Title: "title", Content: "\n\t "},
	}
	for _, draft := range cases {
		_, err := svc.CreatePost(context.Background(), draft, nil)
		assert.True(t, IsValidationError(err), "draft %+v must fail validation", draft)
	}
	assert.Equal(t, 0, api.uploadCalls)
	assert.Equal(t, 0, api.createCalls)
}

func TestCreatePost_RequiresToken(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, session.NewMemoryStore(), testLogger(), nil)

	_, err := svc.CreatePost(context.Background(), Draft{Title: "t", Content: "c"}, nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Equal(t, 0, api.uploadCalls)
	assert.Equal(t, 0, api.createCalls)
}

func TestCreatePost_TextOnly(t *testing.T) {
	api := &fakeAPI{
		createPost: func(_ context.Context, token, title, content string, imageURL *string) (*feed.Post, error) {
			assert.Equal(t, "token-1", token)
			assert.Equal(t, "hello", title)
			assert.Equal(t, "world", content)
			assert.Nil(t, imageURL)
			return &feed.Post{ID: 7, Title: title, Content: content}, nil
		},
	}
	svc := NewService(api, signedInSession(t), testLogger(), nil)

	post, err := svc.CreatePost(context.Background(), Draft{Title: "  hello ", Content: " world\n"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), post.ID)
	assert.Equal(t, 0, api.uploadCalls)
}

func TestCreatePost_UploadFailureAbortsCreate(t *testing.T) {
	api := &fakeAPI{
		uploadImage: func(context.Context, string, []byte, string) (string, error) {
			return "", errors.New("disk full")
		},
		createPost: func(context.Context, string, string, string, *string) (*feed.Post, error) {
			t.Fatal("create must not run after a failed upload")
			return nil, nil
		},
	}
	svc := NewService(api, signedInSession(t), testLogger(), nil)

	image := &Image{Data: []byte{1, 2, 3}, Filename: "cat.jpg"}
	_, err := svc.CreatePost(context.Background(), Draft{Title: "t", Content: "c"}, image)
	require.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 0, api.createCalls, "the post is never created without its intended image")
}

func TestCreatePost_TwoPhaseSuccess(t *testing.T) {
	api := &fakeAPI{
		uploadImage: func(_ context.Context, token string, data []byte, filename string) (string, error) {
			assert.Equal(t, "token-1", token)
			assert.Equal(t, "cat.jpg", filename)
			assert.Equal(t, []byte{1, 2, 3}, data)
			return "/uploads/post_images/cat.jpg", nil
		},
		createPost: func(_ context.Context, _, _, _ string, imageURL *string) (*feed.Post, error) {
			require.NotNil(t, imageURL)
			assert.Equal(t, "/uploads/post_images/cat.jpg", *imageURL)
			return &feed.Post{ID: 8, ImageURL: *imageURL}, nil
		},
	}
	svc := NewService(api, signedInSession(t), testLogger(), nil)

	image := &Image{Data: []byte{1, 2, 3}, Filename: "cat.jpg"}
	post, err := svc.CreatePost(context.Background(), Draft{Title: "t", Content: "c"}, image)
	require.NoError(t, err)
	assert.Equal(t, int64(8), post.ID)
	assert.Equal(t, 1, api.uploadCalls)
	assert.Equal(t, 1, api.createCalls)
}

func TestCreatePost_CreateFailureAfterUpload(t *testing.T) {
	api := &fakeAPI{
		uploadImage: func(context.Context, string, []byte, string) (string, error) {
			return "/uploads/post_images/x.png", nil
		},
		createPost: func(context.Context, string, string, string, *string) (*feed.Post, error) {
			return nil, errors.New("backend down")
		},
	}
	svc := NewService(api, signedInSession(t), testLogger(), nil)

	image := &Image{Data: []byte{9}, Filename: "x.png"}
	_, err := svc.CreatePost(context.Background(), Draft{Title: "t", Content: "c"}, image)
	require.ErrorIs(t, err, ErrCreateFailed)
	assert.Equal(t, 1, api.uploadCalls, "no client-side cleanup of the uploaded image")
}

func TestCreatePost_AuthExpiryOnCreateSignsOut(t *testing.T) {
	expired := 0
	api := &fakeAPI{
		createPost: func(context.Context, string, string, string, *string) (*feed.Post, error) {
			return nil, &authErr{code: 401}
		},
	}
	svc := NewService(api, signedInSession(t), testLogger(), func() { expired++ })

	_, err := svc.CreatePost(context.Background(), Draft{Title: "t", Content: "c"}, nil)
	require.ErrorIs(t, err, ErrCreateFailed)
	assert.Equal(t, 1, expired, "onAuthExpired invoked exactly once")
}
