package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")

	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountInactive    = errors.New("auth: account inactive")

	ErrMissingCredentials = errors.New("auth: credentials were not provided")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrUserInactive       = errors.New("auth: user inactive")
)
