package approval

import (
	"context"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/executor"
)

// Authorizer decides who may submit and who may decide.
type Authorizer interface {
	CanSubmit(actor string, target request.Target) bool
	CanDecide(ctx context.Context, actor string) bool
}

// DecisionInput represents a reviewer decision.
type DecisionInput struct {
	CorrelationKey string           `json:"correlationKey"`
	Decision       request.Decision `json:"decision"`
	Actor          string           `json:"actor"`
	ActorName      string           `json:"actorName,omitempty"`
}

// SubmitInput represents a retraction request submission.
type SubmitInput struct {
	Actor          string         `json:"actor"`
	Target         request.Target `json:"target"`
	CorrelationKey string         `json:"correlationKey,omitempty"`
	ActorName      string         `json:"actorName,omitempty"`
	AuthorName     string         `json:"authorName,omitempty"`
	Preview        string         `json:"preview,omitempty"`
}

// Validate checks required submission fields.
func (i *SubmitInput) Validate() error {
	if i == nil {
		return ErrInvalidInput
	}
	if i.Actor == "" {
		return wrapInvalid("actor was empty")
	}
	if err := i.Target.Validate(); err != nil {
		return wrapInvalid(err.Error())
	}
	return nil
}

// Outcome reports the result of Resolve. AlreadyDecided is set when another
// resolver claimed the request first; Status then carries its current status.
type Outcome struct {
	RequestID      string            `json:"requestId"`
	CorrelationKey string            `json:"correlationKey"`
	Status         request.Status    `json:"status"`
	AlreadyDecided bool              `json:"alreadyDecided,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Failure        *executor.Failure `json:"failure,omitempty"`
}
