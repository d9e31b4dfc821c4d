package join

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrInvalidArgument marks a malformed request. The request is rejected before any scan.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyProjection is returned when PROJECT leaves no column besides ROW.
	ErrEmptyProjection = errors.New("projection removes every column")
)

// ArgumentError describes a rejected request parameter.
type ArgumentError struct {
	Param    string
	Expected string
	Got      any
}

func (e *ArgumentError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("invalid %s: expected %s", e.Param, e.Expected)
	}
	if s, ok := e.Got.(string); ok {
		return fmt.Sprintf("invalid %s: expected %s, got %q", e.Param, e.Expected, s)
	}
	return fmt.Sprintf("invalid %s: expected %s, got %v", e.Param, e.Expected, e.Got)
}

// Is makes every ArgumentError match ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(param, expected string, got any) error {
	return &ArgumentError{Param: param, Expected: expected, Got: got}
}
