package request

// Status represents a deletion request lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	// StatusDeciding marks a request whose decision was claimed by a resolver
	// that has not finalized it yet. It is neither pending nor terminal.
	StatusDeciding Status = "deciding"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusError    Status = "error"
)

// IsTerminal reports whether no further transition is legal.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusError:
		return true
	}
	return false
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDeciding, StatusApproved, StatusDenied, StatusError:
		return true
	}
	return false
}

// Decision is a reviewer verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// IsValid reports whether d is approve or deny.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionDeny
}
