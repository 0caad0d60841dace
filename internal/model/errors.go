package model

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrUnauthenticated = errors.New("not signed in")
)
