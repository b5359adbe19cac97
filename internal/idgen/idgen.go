package idgen

import "github.com/google/uuid"

// NewFunc generates a globally unique identifier.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new request identifier.
func New() string { return NewFunc() }

// NewCorrelationKey returns a correlation key for submissions that arrive
// without a reviewer-facing artifact id.
func NewCorrelationKey() string { return "ck-" + NewFunc() }
