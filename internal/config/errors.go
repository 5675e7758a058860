package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	ErrNoWeeks       = errors.New("no weeks specified")
	ErrBadWeekSpec   = errors.New("bad week spec")
	ErrMissingAuth   = errors.New("missing _ncfa session cookie")
)
