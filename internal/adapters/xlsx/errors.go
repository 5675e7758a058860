package xlsx

import "errors"

// Sentinel error kinds for this package.
var (
	ErrRender = errors.New("render workbook failed")
	ErrWrite  = errors.New("write workbook failed")
)
