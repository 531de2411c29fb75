package types

import "errors"

// Errors
var (
	ErrInvalidDifficulty = errors.New("difficulty must be greater than zero")
	ErrEncoding          = errors.New("malformed task encoding")
	ErrNoSolution        = errors.New("no solution found")
)
