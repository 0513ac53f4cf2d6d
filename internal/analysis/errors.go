package analysis

import "fmt"

// InsufficientDataError reports that an analyzer or model fit was asked
// to run on fewer observations than its statistical floor. Handlers map
// it to a client error rather than a server fault.
type InsufficientDataError struct {
	What   string
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d observations, got %d", e.What, e.Needed, e.Got)
}

// ErrInsufficientData builds the error for a named computation.
func ErrInsufficientData(what string, needed, got int) *InsufficientDataError {
	return &InsufficientDataError{What: what, Needed: needed, Got: got}
}
