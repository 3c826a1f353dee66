package user

import "errors"

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPersistence      = errors.New("persistence error")
)

func IsErrNotAuthenticated(err error) bool { return errors.Is(err, ErrNotAuthenticated) }
func IsErrNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsErrInvalidInput(err error) bool     { return errors.Is(err, ErrInvalidInput) }
func IsErrPersistence(err error) bool      { return errors.Is(err, ErrPersistence) }
