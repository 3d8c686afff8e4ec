package l1grid

import "errors"

var (
	// ErrShape indicates the input is not a two-dimensional H×W grid.
	ErrShape = errors.New("l1grid: grid must be two-dimensional with at least one row and one column")
	// ErrInvalidArgument indicates a structurally invalid argument such as
	// a connectivity other than 4 or 8.
	ErrInvalidArgument = errors.New("l1grid: invalid argument")
)
