package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrUnknownTieMode = errors.New("unknown tie mode")
)
