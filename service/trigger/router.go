package trigger

import (
	"context"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/approval"
	"go.uber.org/zap"
)

// Approver is the approval state machine as seen by trigger channels.
type Approver interface {
	Submit(ctx context.Context, input *approval.SubmitInput) (*request.DeletionRequest, error)
	Decide(ctx context.Context, input *approval.DecisionInput) (*approval.Outcome, error)
}

// Router routes channel events to an Approver.
type Router struct {
	approver          Approver
	reactions         *Reactions
	reviewDestination string
	logger            *zap.Logger
}

// Option customises a Router.
type Option func(r *Router)

// WithReactions overrides reaction names.
func WithReactions(reactions *Reactions) Option {
	return func(r *Router) {
		if reactions != nil {
			r.reactions = reactions
		}
	}
}

// WithReviewDestination restricts reactions to the review destination.
func WithReviewDestination(destination string) Option {
	return func(r *Router) { r.reviewDestination = destination }
}

// WithLogger sets the router logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Submit forwards a submission.
func (r *Router) Submit(ctx context.Context, event *SubmissionEvent) (*request.DeletionRequest, error) {
	if event == nil {
		return nil, approval.ErrInvalidInput
	}
	ret, err := r.approver.Submit(ctx, &approval.SubmitInput{
		Actor:          event.ActorID,
		Target:         event.Target,
		CorrelationKey: event.CorrelationKeyHint,
		ActorName:      event.ActorName,
		AuthorName:     event.AuthorName,
		Preview:        event.Preview,
	})
	if err != nil {
		r.logger.Info("submission not accepted",
			zap.String("channel", string(event.Channel)),
			zap.String("actor", event.ActorID),
			zap.Error(err))
	}
	return ret, err
}

// Decide forwards a decision.
func (r *Router) Decide(ctx context.Context, event *DecisionEvent) (*approval.Outcome, error) {
	if event == nil {
		return nil, approval.ErrInvalidInput
	}
	outcome, err := r.approver.Decide(ctx, &approval.DecisionInput{
		CorrelationKey: event.CorrelationKey,
		Decision:       event.Decision,
		Actor:          event.ActorID,
		ActorName:      event.ActorName,
	})
	switch {
	case err != nil:
		r.logger.Info("decision not accepted",
			zap.String("channel", string(event.Channel)),
			zap.String("correlation_key", event.CorrelationKey),
			zap.String("actor", event.ActorID),
			zap.Error(err))
	case outcome.AlreadyDecided:
		r.logger.Debug("request already decided",
			zap.String("channel", string(event.Channel)),
			zap.String("correlation_key", event.CorrelationKey),
			zap.String("status", string(outcome.Status)))
	}
	return outcome, err
}

// React turns a reaction into a decision. Reactions outside the review
// destination, or not bound to a decision, are ignored: both results are nil.
func (r *Router) React(ctx context.Context, event *ReactionEvent) (*approval.Outcome, error) {
	if event == nil {
		return nil, nil
	}
	if r.reviewDestination != "" && event.Location != r.reviewDestination {
		return nil, nil
	}
	decision, ok := r.reactions.Decision(event.Reaction)
	if !ok {
		return nil, nil
	}
	return r.Decide(ctx, &DecisionEvent{
		CorrelationKey: event.CorrelationKey,
		Decision:       decision,
		ActorID:        event.ActorID,
		ActorName:      event.ActorName,
		Channel:        ChannelReaction,
	})
}

// NewRouter creates a router.
func NewRouter(approver Approver, options ...Option) *Router {
	ret := &Router{approver: approver, reactions: DefaultReactions(), logger: zap.NewNop()}
	for _, option := range options {
		option(ret)
	}
	return ret
}
