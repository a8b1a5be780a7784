// Package errors defines the sentinel errors shared by the directory packages.
// Callers wrap them with fmt.Errorf("...: %w", err) and test them with errors.Is.
package errors

import (
	"fmt"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrInvalidRecord       = fmt.Errorf("invalid record")
	ErrAddressUnresolvable = fmt.Errorf("address unresolvable")
	ErrUnauthenticated     = fmt.Errorf("authentication required")
)
