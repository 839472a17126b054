package session

import "errors"

var (
	// ErrNoTokenReceived is returned when login succeeds without an access_token.
	ErrNoTokenReceived = errors.New("no access token received")

	// ErrProfileFetch is returned when the profile cannot be fetched after login.
	// The token stays persisted; call Logout to discard it.
	ErrProfileFetch = errors.New("failed to fetch user data")

	// ErrProfileUpdate is returned when the backend rejects a profile update.
	ErrProfileUpdate = errors.New("profile update failed")

	// ErrNotAuthenticated is returned by operations that need a signed in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)
