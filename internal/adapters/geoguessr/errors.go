package geoguessr

import "errors"

// Sentinel error kinds for this package.
var (
	ErrHTTPStatus   = errors.New("unexpected http status")
	ErrRequest      = errors.New("request failed")
	ErrInvalidJSON  = errors.New("invalid json payload")
	ErrNoItems      = errors.New("could not locate highscores items list")
	ErrNoToken      = errors.New("could not extract token from url")
	ErrEmptyURLList = errors.New("url list is empty")
	ErrReadURLList  = errors.New("read url list failed")
	ErrDump         = errors.New("dump highscores failed")
)
