package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/retract/internal/clock"
	"github.com/viant/retract/internal/idgen"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
	"github.com/viant/retract/service/executor"
	"github.com/viant/retract/service/notification"
	"github.com/viant/retract/tracing"
	"go.uber.org/zap"
)

const (
	defaultRecentLimit = 10
	maxSettleBackoff   = 250 * time.Millisecond
)

// Service is the approval state machine. It holds no per-request lock: the
// store compare-and-swap from pending is the only serialization point, and
// the resolver winning it is the only one that executes the deletion.
type Service struct {
	store     deletion.Service
	policy    Authorizer
	executor  executor.Executor
	publisher notification.Publisher
	logger    *zap.Logger

	finalizeRetries int
	finalizeBackoff time.Duration
	settleTimeout   time.Duration
	settleBackoff   time.Duration
}

// Submit records a pending request on behalf of the content author.
func (s *Service) Submit(ctx context.Context, input *SubmitInput) (*request.DeletionRequest, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if !s.policy.CanSubmit(input.Actor, input.Target) {
		s.logger.Info("submission rejected",
			zap.String("actor", input.Actor),
			zap.String("target", input.Target.String()))
		return nil, ErrUnauthorized
	}
	key := input.CorrelationKey
	if key == "" {
		key = idgen.NewCorrelationKey()
	}
	pending, err := s.store.List(ctx, criteria.WithStatus(request.StatusPending), criteria.WithTarget(input.Target), criteria.WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests for %v: %w", input.Target, err)
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: request %v is already pending for %v", ErrDuplicate, pending[0].CorrelationKey, input.Target)
	}
	r := &request.DeletionRequest{
		CorrelationKey: key,
		Target:         input.Target,
		AuthorID:       input.Target.AuthorID,
		RequesterID:    input.Actor,
		AuthorName:     input.AuthorName,
		RequesterName:  input.ActorName,
		Preview:        input.Preview,
	}
	if _, err = s.store.Create(ctx, r); err != nil {
		if errors.Is(err, dao.ErrConflict) {
			return nil, fmt.Errorf("%w: correlation key %v", ErrDuplicate, key)
		}
		return nil, fmt.Errorf("failed to create request %v: %w", key, err)
	}
	s.logger.Info("request submitted",
		zap.String("request_id", r.ID),
		zap.String("correlation_key", r.CorrelationKey),
		zap.String("requester_id", r.RequesterID),
		zap.String("target", r.Target.String()))
	s.publisher.Publish(ctx, notification.NewCreatedEvent(r))
	return r.Clone(), nil
}

// Resolve applies decision by actor to the request identified by key.
//
// A resolver losing the race receives an Outcome with AlreadyDecided set,
// the terminal status once the winner records it, and a nil error. The winner finalizes the request even if ctx is
// cancelled afterwards.
func (s *Service) Resolve(ctx context.Context, key string, decision request.Decision, actor string) (*Outcome, error) {
	return s.Decide(ctx, &DecisionInput{CorrelationKey: key, Decision: decision, Actor: actor})
}

// Decide is Resolve with the decider display name recorded next to the id.
func (s *Service) Decide(ctx context.Context, input *DecisionInput) (outcome *Outcome, err error) {
	if input == nil {
		return nil, ErrInvalidInput
	}
	key, decision, actor := input.CorrelationKey, input.Decision, input.Actor
	if key == "" {
		return nil, wrapInvalid("correlation key was empty")
	}
	if !decision.IsValid() {
		return nil, wrapInvalid(fmt.Sprintf("unsupported decision %q", decision))
	}
	ctx, span := tracing.StartSpan(ctx, "approval.resolve", tracing.KindInternal)
	span.WithAttributes(map[string]string{"correlation_key": key, "decision": string(decision), "actor": actor})
	defer func() { tracing.EndSpan(span, err) }()

	r, err := s.store.GetByCorrelationKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %v: %w", key, err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	if !s.policy.CanDecide(ctx, actor) {
		s.logger.Info("decision rejected",
			zap.String("correlation_key", key),
			zap.String("actor", actor))
		return nil, ErrUnauthorized
	}
	claimed, err := s.store.CompareAndSwapStatus(ctx, &deletion.Transition{
		ID:          r.ID,
		Expected:    request.StatusPending,
		Status:      request.StatusDeciding,
		DecidedBy:   actor,
		DeciderName: input.ActorName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim request %v: %w", key, err)
	}
	if !claimed {
		return s.alreadyDecided(ctx, r)
	}
	r.Status = request.StatusDeciding
	r.DecidedBy = actor
	if input.ActorName != "" {
		r.DeciderName = input.ActorName
	}
	return s.finalize(context.WithoutCancel(ctx), r, decision, actor)
}

func (s *Service) alreadyDecided(ctx context.Context, r *request.DeletionRequest) (*Outcome, error) {
	current, err := s.settled(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %v: %w", r.CorrelationKey, err)
	}
	if current == nil {
		current = r
	}
	return &Outcome{
		RequestID:      current.ID,
		CorrelationKey: current.CorrelationKey,
		Status:         current.Status,
		AlreadyDecided: true,
		Notes:          current.Notes,
	}, nil
}

// settled loads request id, waiting up to settleTimeout for a claimed
// request to reach a terminal status. The deciding status is returned only
// once the wait runs out or ctx is done.
func (s *Service) settled(ctx context.Context, id string) (*request.DeletionRequest, error) {
	budget := time.NewTimer(s.settleTimeout)
	defer budget.Stop()
	backoff := s.settleBackoff
	for {
		current, err := s.store.Load(ctx, id)
		if err != nil || current == nil || current.Status != request.StatusDeciding {
			return current, err
		}
		wait := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			wait.Stop()
			return current, nil
		case <-budget.C:
			wait.Stop()
			return current, nil
		case <-wait.C:
		}
		if backoff *= 2; backoff > maxSettleBackoff {
			backoff = maxSettleBackoff
		}
	}
}

func (s *Service) finalize(ctx context.Context, r *request.DeletionRequest, decision request.Decision, actor string) (*Outcome, error) {
	outcome := &Outcome{RequestID: r.ID, CorrelationKey: r.CorrelationKey, Status: request.StatusDenied}
	if decision == request.DecisionApprove {
		outcome.Status = request.StatusApproved
		if failure := s.execute(ctx, r); failure != nil {
			outcome.Status = request.StatusError
			outcome.Failure = failure
			outcome.Notes = failure.Notes()
		}
	}
	decidedAt := clock.Now()
	transition := &deletion.Transition{
		ID:        r.ID,
		Expected:  request.StatusDeciding,
		Status:    outcome.Status,
		DecidedAt: &decidedAt,
		Notes:     outcome.Notes,
	}
	if err := s.commit(ctx, transition); err != nil {
		return outcome, err
	}
	transition.Apply(r)
	s.logger.Info("request decided",
		zap.String("request_id", r.ID),
		zap.String("correlation_key", r.CorrelationKey),
		zap.String("status", string(r.Status)),
		zap.String("decided_by", actor))
	s.publisher.Publish(ctx, notification.NewDecidedEvent(r, actor, outcome.Notes))
	return outcome, nil
}

func (s *Service) execute(ctx context.Context, r *request.DeletionRequest) *executor.Failure {
	ctx, span := tracing.StartSpan(ctx, "approval.execute", tracing.KindClient)
	span.WithAttributes(map[string]string{"target": r.Target.String()})
	err := s.executor.Execute(ctx, r.Target)
	tracing.EndSpan(span, err)
	failure := executor.AsFailure(err)
	if failure != nil {
		s.logger.Warn("privileged deletion failed",
			zap.String("correlation_key", r.CorrelationKey),
			zap.String("target", r.Target.String()),
			zap.String("kind", string(failure.Kind)),
			zap.Error(err))
	}
	return failure
}

// commit writes the terminal transition, retrying store errors.
func (s *Service) commit(ctx context.Context, t *deletion.Transition) error {
	backoff := s.finalizeBackoff
	var err error
	for attempt := 0; attempt <= s.finalizeRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		var swapped bool
		if swapped, err = s.store.CompareAndSwapStatus(ctx, t); err == nil {
			if !swapped {
				return fmt.Errorf("request %v left %v status before it was finalized", t.ID, t.Expected)
			}
			return nil
		}
		s.logger.Warn("failed to record decision",
			zap.String("request_id", t.ID),
			zap.String("status", string(t.Status)),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	s.logger.Error("decision was not recorded, request remains deciding",
		zap.String("request_id", t.ID),
		zap.String("status", string(t.Status)),
		zap.Error(err))
	return fmt.Errorf("failed to record %v status for %v: %w", t.Status, t.ID, err)
}

// GetByCorrelationKey returns the request for key, nil when absent.
func (s *Service) GetByCorrelationKey(ctx context.Context, key string) (*request.DeletionRequest, error) {
	return s.store.GetByCorrelationKey(ctx, key)
}

// ListPending returns requests awaiting a decision, newest first.
func (s *Service) ListPending(ctx context.Context) ([]*request.DeletionRequest, error) {
	return s.store.List(ctx, criteria.WithStatus(request.StatusPending))
}

// Recent returns the most recent requests of any status.
func (s *Service) Recent(ctx context.Context, limit int) ([]*request.DeletionRequest, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.store.List(ctx, criteria.WithLimit(limit))
}

// List returns the newest requests with status, or of any status when
// status is empty. A non-positive limit returns every match.
func (s *Service) List(ctx context.Context, status request.Status, limit int) ([]*request.DeletionRequest, error) {
	var parameters []*dao.Parameter
	if status != "" {
		parameters = append(parameters, criteria.WithStatus(status))
	}
	if limit > 0 {
		parameters = append(parameters, criteria.WithLimit(limit))
	}
	return s.store.List(ctx, parameters...)
}

// New creates an approval service.
func New(store deletion.Service, policy Authorizer, exec executor.Executor, options ...Option) *Service {
	ret := &Service{
		store:           store,
		policy:          policy,
		executor:        exec,
		publisher:       notification.Nop,
		logger:          zap.NewNop(),
		finalizeRetries: 3,
		finalizeBackoff: 50 * time.Millisecond,
		settleTimeout:   10 * time.Second,
		settleBackoff:   10 * time.Millisecond,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}
