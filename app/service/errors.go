package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists    = errors.New("user already exists")
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrUserExists)
	ErrUsernameTaken = fmt.Errorf("%w: username already registered", ErrUserExists)

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")

	ErrCodeNotRequested = errors.New("code not requested")
	ErrInvalidCode      = errors.New("invalid code")
	ErrCodeExpired      = errors.New("code expired")
	ErrCodeDelivery     = errors.New("could not deliver code")

	ErrInvalidToken = errors.New("invalid or expired token")
)
