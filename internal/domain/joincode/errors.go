package joincode

import "errors"

var (
	ErrExhaustedAttempts = errors.New("could not generate a unique join code, try again")
	ErrInvalidLength     = errors.New("invalid join code length")
	ErrPersistence       = errors.New("persistence error")
)

func IsErrExhaustedAttempts(err error) bool { return errors.Is(err, ErrExhaustedAttempts) }
func IsErrPersistence(err error) bool       { return errors.Is(err, ErrPersistence) }
