package team

import (
	"errors"

	"team-checkin/backend/internal/domain/joincode"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrCodeNotFound     = errors.New("join code not found")
	ErrCodeInactive     = errors.New("join code is no longer active")
	ErrCorruptCode      = errors.New("join code is missing its team")
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotAMember       = errors.New("not a team member")
	ErrForbidden        = errors.New("coach access only")
	ErrPersistence      = errors.New("persistence error")

	// ErrExhaustedAttempts is shared with the join code allocator.
	ErrExhaustedAttempts = joincode.ErrExhaustedAttempts
)

func IsErrInvalidInput(err error) bool     { return errors.Is(err, ErrInvalidInput) }
func IsErrNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsErrCodeNotFound(err error) bool     { return errors.Is(err, ErrCodeNotFound) }
func IsErrCodeInactive(err error) bool     { return errors.Is(err, ErrCodeInactive) }
func IsErrCorruptCode(err error) bool      { return errors.Is(err, ErrCorruptCode) }
func IsErrNotAuthenticated(err error) bool { return errors.Is(err, ErrNotAuthenticated) }
func IsErrNotAMember(err error) bool       { return errors.Is(err, ErrNotAMember) }
func IsErrForbidden(err error) bool        { return errors.Is(err, ErrForbidden) }
func IsErrExhaustedAttempts(err error) bool {
	return errors.Is(err, ErrExhaustedAttempts)
}

// IsErrPersistence also matches allocator lookups that failed in the store.
func IsErrPersistence(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, joincode.ErrPersistence)
}
