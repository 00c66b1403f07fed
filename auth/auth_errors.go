package auth

import "errors"

var (
	ErrInvalidCode     = errors.New("invalid code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrRateLimited     = errors.New("too many code requests")
	ErrPhoneTaken      = errors.New("user with this phone number already exists")
	ErrUserInactive    = errors.New("user account is inactive")
	ErrCodeNotFound    = errors.New("code not found")
)
