package deadline

import "errors"

// Sentinel kinds for deadline errors. Both are fatal for a run.
var (
	ErrUnparsableDeadline = errors.New("could not parse deadline")
	ErrUnknownTimezone    = errors.New("unknown timezone")
)
