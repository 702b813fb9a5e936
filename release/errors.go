package release

import "fmt"

// ErrUnknownProvider is an error about an unknown metadata provider ID in configuration.
type ErrUnknownProvider struct {
	// Provider is the offending provider ID.
	Provider string
}

// Error returns the string representation of the error.
func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown metadata provider %s", e.Provider)
}
