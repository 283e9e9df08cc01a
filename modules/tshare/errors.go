package tshare

import "errors"

// All of these are programmer errors: non-positive volume,
// a non-positive R or F result, or calling an operation with a time
// earlier than the model has already advanced to.
var (
	ErrNonPositiveVolume = errors.New("tshare: activity volume must be positive")
	ErrNonPositiveRate   = errors.New("tshare: R(n) must be strictly positive")
	ErrNonPositiveFactor = errors.New("tshare: F(payload) must be strictly positive")
	ErrTimeWentBackwards = errors.New("tshare: now is earlier than the model's last-advanced time")
)
