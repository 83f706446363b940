package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so that login failures never reveal which half was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken covers refresh tokens that are absent, already
	// rotated, revoked, malformed, or past expiry, and access tokens that
	// fail signature or claim validation.
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	// ErrUserNotFound is returned when a refresh token survives but its
	// owning user record no longer exists.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrForbidden marks a valid identity with insufficient privilege.
	ErrForbidden = errors.New("auth: forbidden")

	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
)
