package approval

import (
	"context"
	"sync"
	"time"

	"github.com/viant/retract/internal/clock"
	"github.com/viant/retract/model/request"
	"go.uber.org/zap"
)

// Resolver is the part of Service used by automatic deciders.
type Resolver interface {
	ListPending(ctx context.Context) ([]*request.DeletionRequest, error)
	Resolve(ctx context.Context, key string, decision request.Decision, actor string) (*Outcome, error)
}

// DecisionFunc decides what to do with a pending request.
// Return (decision, true) to resolve it, or ("", false) to leave it pending.
type DecisionFunc func(r *request.DeletionRequest) (request.Decision, bool)

// AutoDecider starts a goroutine that polls ListPending and resolves every
// request fn decides on, as actor. Failures are logged and retried on the
// next tick. It returns stop(); call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Resolver,
	actor string,
	fn DecisionFunc,
	interval time.Duration,
	logger *zap.Logger) (stop func()) {

	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, err := svc.ListPending(ctx)
				if err != nil {
					logger.Warn("failed to list pending requests", zap.String("actor", actor), zap.Error(err))
					continue
				}
				for _, r := range reqs {
					decision, ok := fn(r)
					if !ok {
						continue
					}
					if _, err = svc.Resolve(ctx, r.CorrelationKey, decision, actor); err != nil {
						logger.Warn("failed to auto resolve request",
							zap.String("correlation_key", r.CorrelationKey),
							zap.String("decision", string(decision)),
							zap.String("actor", actor),
							zap.Error(err))
					}
				}
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// AutoApprove approves pending requests once they are older than after.
func AutoApprove(ctx context.Context,
	svc Resolver,
	actor string,
	after time.Duration,
	interval time.Duration,
	logger *zap.Logger) func() {
	return AutoDecider(ctx, svc, actor,
		func(r *request.DeletionRequest) (request.Decision, bool) {
			return request.DecisionApprove, clock.Since(r.CreatedAt) >= after
		}, interval, logger)
}
