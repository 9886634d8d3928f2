package domain

import "errors"

// Validation errors are detected before any store access or mutation.
var (
	ErrInvalidDate     = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidArgument = errors.New("invalid argument")
)
