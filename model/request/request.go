package request

import "time"

// DeletionRequest represents a self-service request to retract authored content.
//
// ID, CorrelationKey and Target never change after creation; Status,
// DecidedBy, DecidedAt and Notes are only changed by the request store's
// compare-and-swap transition.
type DeletionRequest struct {
	ID             string     `json:"id"`
	CorrelationKey string     `json:"correlationKey"`
	Target         Target     `json:"target"`
	AuthorID       string     `json:"authorId"`
	RequesterID    string     `json:"requesterId"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
	DecidedBy      string     `json:"decidedBy,omitempty"`
	DeciderName    string     `json:"deciderName,omitempty"`
	Notes          string     `json:"notes,omitempty"`

	AuthorName    string `json:"authorName,omitempty"`
	RequesterName string `json:"requesterName,omitempty"`
	Preview       string `json:"preview,omitempty"` // content snippet shown to reviewers
}

// IsPending reports whether the request still awaits a decision.
func (r *DeletionRequest) IsPending() bool {
	return r != nil && r.Status == StatusPending
}

// Clone returns a detached copy, so that store snapshots cannot be mutated by callers.
func (r *DeletionRequest) Clone() *DeletionRequest {
	if r == nil {
		return nil
	}
	ret := *r
	if r.DecidedAt != nil {
		decidedAt := *r.DecidedAt
		ret.DecidedAt = &decidedAt
	}
	return &ret
}
