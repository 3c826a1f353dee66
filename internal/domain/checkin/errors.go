package checkin

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence error")
)

func IsErrInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
func IsErrNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsErrPersistence(err error) bool  { return errors.Is(err, ErrPersistence) }
