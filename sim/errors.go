package sim

import "errors"

// Sentinel errors returned by the sampling primitives. Callers match them with errors.Is;
// every returned error wraps exactly one of these.
var (
	// ErrEmptyInput is returned when a weight or rate vector has zero length.
	ErrEmptyInput = errors.New("sim: empty weight vector")

	// ErrInvalidArgument is returned when a documented precondition is violated,
	// e.g. k > n in subset sampling or N < 2 in distinct pair choice.
	ErrInvalidArgument = errors.New("sim: invalid argument")

	// ErrZeroTotalRate is returned when every weight is zero. For a Gillespie step this
	// means no further event can occur: the process has reached an absorbing state.
	ErrZeroTotalRate = errors.New("sim: total rate is zero")
)
