package table

import "fmt"

// Failure records that the row transform failed for one row. Message is the
// description carried on the wire; Cause is nil for failures restored from
// an encoded table.
type Failure struct {
	Row     int
	Message string
	Cause   error
}

// NewFailure creates a failure for row from cause.
func NewFailure(row int, cause error) *Failure {
	msg := "<nil>"
	if cause != nil {
		msg = cause.Error()
	}
	return &Failure{Row: row, Message: msg, Cause: cause}
}

// Error implements the error interface
func (f *Failure) Error() string {
	return fmt.Sprintf("row %d: %s", f.Row, f.Message)
}

// Unwrap returns the underlying error
func (f *Failure) Unwrap() error {
	return f.Cause
}
