package meta

import "fmt"

// ErrInvalidField is an error about a malformed numeric bundle field,
// such as a NaN duration or a negative vote count.
type ErrInvalidField struct {
	// Field is the offending field name.
	Field string
	// Value is the string representation of the offending value.
	Value string
}

// Error returns the string representation of the error.
func (eif *ErrInvalidField) Error() string {
	return fmt.Sprintf("invalid value %s for field %s", eif.Value, eif.Field)
}
