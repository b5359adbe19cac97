package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a privileged deletion failed.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindTransientNetwork Kind = "transient_network"
	KindUnknown          Kind = "unknown"
)

// Guidance returns the user facing hint recorded with a failure of kind k.
func (k Kind) Guidance() string {
	switch k {
	case KindNotFound:
		return "the content may already be gone"
	case KindPermissionDenied:
		return "the acting credential needs access to the target location"
	case KindTransientNetwork:
		return "a temporary network problem interrupted the deletion, please resubmit"
	}
	return "the deletion failed unexpectedly"
}

// Failure is a classified execution error.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Err != nil && f.Message == "" {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error { return f.Err }

// Notes renders the guidance and failure message stored with a request
// that ended in error.
func (f *Failure) Notes() string {
	message := f.Message
	if message == "" && f.Err != nil {
		message = f.Err.Error()
	}
	if message == "" {
		return f.Kind.Guidance()
	}
	return f.Kind.Guidance() + ": " + message
}

// NewFailure creates a failure of kind.
func NewFailure(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// AsFailure classifies err. It returns nil for a nil error. Errors not
// produced by an executor are KindUnknown, except deadlines and network
// timeouts which are KindTransientNetwork.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := asFailure(err); ok {
		return f
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewFailure(KindTransientNetwork, err.Error(), err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewFailure(KindTransientNetwork, err.Error(), err)
	}
	return NewFailure(KindUnknown, err.Error(), err)
}

func asFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) && f != nil {
		return f, true
	}
	return nil, false
}
