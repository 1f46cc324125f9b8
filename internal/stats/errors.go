package stats

import "errors"

var (
	ErrMissingVariant      = errors.New("variant not present in data")
	ErrDivisionByZero      = errors.New("row with zero sessions")
	ErrDegenerateRange     = errors.New("rpv range is degenerate (min equals max)")
	ErrInsufficientData    = errors.New("not enough data to estimate")
	ErrInvalidVariantCount = errors.New("srm check needs exactly two variants")
)
