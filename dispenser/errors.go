package dispenser

import "github.com/go-errors/errors"

var (
	// ErrMachineBusy rejects a request while a plan is running. It is an
	// expected outcome, not a fault.
	ErrMachineBusy = errors.New("machine busy")

	// ErrStopped is returned for requests made after the dispenser loop ended.
	ErrStopped = errors.New("dispenser stopped")
)
