package ddns

import (
	"errors"
	"fmt"
)

// ErrUpdateFailed matches every error returned by Client.Update.
var ErrUpdateFailed = errors.New("ddns update failed")

// RequestError means the provider could not be reached or did not answer in time.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("update request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() []error {
	return []error{ErrUpdateFailed, e.Err}
}

// RejectionError means the provider answered, but not with a success.
type RejectionError struct {
	Status int
	Body   string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("update rejected: status %d: %q", e.Status, e.Body)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrUpdateFailed
}

// Updated reports whether err, as returned by Client.Update, means success.
func Updated(err error) bool {
	return err == nil
}
