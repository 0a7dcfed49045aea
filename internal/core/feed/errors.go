package feed

import "errors"

var (
	// ErrFetchPosts indicates the mandatory post-list fetch failed. Fatal to
	// the sync: the store is reset to an empty baseline.
	ErrFetchPosts = errors.New("fetch posts failed")

	// ErrSuperseded indicates a sync completed after a newer sync had
	// already been issued; its result was discarded, not applied.
	ErrSuperseded = errors.New("sync superseded by a newer call")

	// ErrAuthRequired indicates an authenticated action was attempted with
	// no session token present. Detected locally, no network call is made.
	ErrAuthRequired = errors.New("authentication required")

	// ErrToggleFailed indicates a reaction confirmation call failed and the
	// optimistic change was rolled back.
	ErrToggleFailed = errors.New("toggle failed")
)

// authExpiredError is implemented by transport errors caused by the backend
// rejecting the session token (401/403). Declared here so core logic can
// detect auth expiry without depending on the transport package.
type authExpiredError interface {
	error
	AuthExpired() bool
}

func isAuthExpired(err error) bool {
	var ae authExpiredError
	return errors.As(err, &ae) && ae.AuthExpired()
}
