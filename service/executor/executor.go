package executor

import (
	"context"
	"time"

	"github.com/viant/retract/model/request"
)

// Executor performs the privileged deletion of target. A non-nil error is
// classified with AsFailure.
type Executor interface {
	Execute(ctx context.Context, target request.Target) error
}

// Func adapts a function to Executor.
type Func func(ctx context.Context, target request.Target) error

// Execute calls fn.
func (fn Func) Execute(ctx context.Context, target request.Target) error {
	return fn(ctx, target)
}

// Listener is invoked once an execution completes, whether it failed or not.
type Listener func(target request.Target, elapsed time.Duration, err error)

type listened struct {
	Executor
	listener Listener
}

func (l *listened) Execute(ctx context.Context, target request.Target) error {
	started := time.Now()
	err := l.Executor.Execute(ctx, target)
	l.listener(target, time.Since(started), err)
	return err
}

// WithListener wraps e so that listener observes every execution. Passing a
// nil listener returns e unchanged.
func WithListener(e Executor, listener Listener) Executor {
	if listener == nil {
		return e
	}
	return &listened{Executor: e, listener: listener}
}

type timed struct {
	Executor
	timeout time.Duration
}

func (t *timed) Execute(ctx context.Context, target request.Target) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	err := t.Executor.Execute(ctx, target)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		if f, ok := asFailure(err); ok && f.Kind != KindUnknown {
			return err
		}
		return NewFailure(KindTransientNetwork, "deletion timed out after "+t.timeout.String(), err)
	}
	return err
}

// WithTimeout bounds every execution of e by timeout; an execution cut off
// by the deadline fails with KindTransientNetwork.
func WithTimeout(e Executor, timeout time.Duration) Executor {
	if timeout <= 0 {
		return e
	}
	return &timed{Executor: e, timeout: timeout}
}
