package policy

import (
	"context"
	"errors"
	"strings"

	"github.com/viant/retract/model/request"
	"go.uber.org/zap"
)

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Reviewers      []string `json:"reviewers,omitempty" yaml:"reviewers,omitempty"`
	Audience       string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	OpenMembership bool     `json:"openMembership,omitempty" yaml:"openMembership,omitempty"`
}

// Validate checks that at least one actor could ever decide.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("policy config was empty")
	}
	if !c.OpenMembership && len(c.Reviewers) == 0 {
		return errors.New("no reviewers configured and reviewer membership is closed")
	}
	return nil
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		Reviewers:      append([]string(nil), c.Reviewers...),
		Audience:       c.Audience,
		OpenMembership: c.OpenMembership,
	}
}

// Policy evaluates submit and decide permissions.
//
//   - CanSubmit admits only the author of the target content.
//   - CanDecide admits listed reviewers, and, with open membership, every
//     member of the review audience.
//
// A nil Membership with open membership admits everyone.
type Policy struct {
	reviewers      map[string]bool
	audience       string
	openMembership bool
	membership     Membership
	logger         *zap.Logger
}

// Option customises a Policy.
type Option func(p *Policy)

// WithLogger sets the logger used to report membership lookup failures.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// CanSubmit reports whether actor may ask to retract target.
func (p *Policy) CanSubmit(actor string, target request.Target) bool {
	actor = strings.TrimSpace(actor)
	return actor != "" && actor == target.AuthorID
}

// CanDecide reports whether actor may approve or deny requests.
func (p *Policy) CanDecide(ctx context.Context, actor string) bool {
	if p == nil || actor == "" {
		return false
	}
	if p.reviewers[actor] {
		return true
	}
	if !p.openMembership {
		return false
	}
	if p.membership == nil {
		return true
	}
	ok, err := p.membership.IsMember(ctx, p.audience, actor)
	if err != nil {
		p.logger.Warn("membership lookup failed",
			zap.String("audience", p.audience),
			zap.String("actor", actor),
			zap.Error(err))
		return false
	}
	return ok
}

// Config returns a serialisable copy of the policy settings.
func (p *Policy) Config() *Config {
	ret := &Config{Audience: p.audience, OpenMembership: p.openMembership}
	for id := range p.reviewers {
		ret.Reviewers = append(ret.Reviewers, id)
	}
	return ret
}

// New creates a policy from cfg; membership may be nil.
func New(cfg *Config, membership Membership, options ...Option) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ret := &Policy{
		reviewers:      make(map[string]bool, len(cfg.Reviewers)),
		audience:       cfg.Audience,
		openMembership: cfg.OpenMembership,
		membership:     membership,
		logger:         zap.NewNop(),
	}
	for _, id := range cfg.Reviewers {
		if id = strings.TrimSpace(id); id != "" {
			ret.reviewers[id] = true
		}
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}
