package trigger

import "github.com/viant/retract/model/request"

// Channel names the surface an event arrived through.
type Channel string

const (
	ChannelButton   Channel = "button"
	ChannelReaction Channel = "reaction"
	ChannelCommand  Channel = "command"
	ChannelHTTP     Channel = "http"
)

// SubmissionEvent asks to retract content.
type SubmissionEvent struct {
	ActorID            string         `json:"actorId"`
	ActorName          string         `json:"actorName,omitempty"`
	Target             request.Target `json:"target"`
	CorrelationKeyHint string         `json:"correlationKey,omitempty"`
	AuthorName         string         `json:"authorName,omitempty"`
	Preview            string         `json:"preview,omitempty"`
	Channel            Channel        `json:"channel,omitempty"`
}

// DecisionEvent approves or denies a request.
type DecisionEvent struct {
	CorrelationKey string           `json:"correlationKey"`
	Decision       request.Decision `json:"decision"`
	ActorID        string           `json:"actorId"`
	ActorName      string           `json:"actorName,omitempty"`
	Channel        Channel          `json:"channel,omitempty"`
}

// ReactionEvent is an emoji reaction added to a review message.
type ReactionEvent struct {
	Location       string `json:"location"`
	CorrelationKey string `json:"correlationKey"`
	Reaction       string `json:"reaction"`
	ActorID        string `json:"actorId"`
	ActorName      string `json:"actorName,omitempty"`
}

// Reactions maps reaction names to decisions.
type Reactions struct {
	Approve []string `json:"approve,omitempty" yaml:"approve,omitempty"`
	Deny    []string `json:"deny,omitempty" yaml:"deny,omitempty"`
}

// DefaultReactions returns the check mark and cross reactions.
func DefaultReactions() *Reactions {
	return &Reactions{Approve: []string{"white_check_mark"}, Deny: []string{"x"}}
}

// Decision returns the decision bound to reaction, false for any other reaction.
func (r *Reactions) Decision(reaction string) (request.Decision, bool) {
	for _, name := range r.Approve {
		if name == reaction {
			return request.DecisionApprove, true
		}
	}
	for _, name := range r.Deny {
		if name == reaction {
			return request.DecisionDeny, true
		}
	}
	return "", false
}
