package retract

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/retract/model/request"
	"github.com/viant/retract/policy"
	"github.com/viant/retract/service/approval"
	"github.com/viant/retract/service/dao/deletion"
	"github.com/viant/retract/service/executor"
	"github.com/viant/retract/service/executor/chat"
	"github.com/viant/retract/service/executor/storage"
	"github.com/viant/retract/service/notification"
	nfs "github.com/viant/retract/service/notification/fs"
	"github.com/viant/retract/service/trigger"
	"github.com/viant/retract/service/trigger/rest"
	"github.com/viant/retract/tracing"
	"go.uber.org/zap"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Service wires the approval state machine with its store, policy,
// executor, notification dispatcher and trigger channels.
type Service struct {
	config     *Config
	logger     *zap.Logger
	fs         afs.Service
	store      deletion.Service
	executor   executor.Executor
	membership policy.Membership
	notifiers  []notification.Notifier

	policy     *policy.Policy
	dispatcher *notification.Dispatcher
	approval   *approval.Service
	router     *trigger.Router
	handler    *rest.Handler
	closers    []func()

	mux         sync.Mutex
	stopAutoApp func()
}

// Approval returns the approval state machine.
func (s *Service) Approval() *approval.Service { return s.approval }

// Router returns the trigger router.
func (s *Service) Router() *trigger.Router { return s.router }

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler.Routes() }

// Dispatcher returns the notification dispatcher.
func (s *Service) Dispatcher() *notification.Dispatcher { return s.dispatcher }

// Start launches background workers: notice delivery and, when enabled,
// auto approval.
func (s *Service) Start(ctx context.Context) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.dispatcher.Start(ctx)
	if s.config.AutoApprove.Enabled() && s.stopAutoApp == nil {
		auto := s.config.AutoApprove
		s.logger.Info("auto approval enabled",
			zap.Duration("after", auto.After),
			zap.String("actor", auto.Actor))
		s.stopAutoApp = approval.AutoApprove(ctx, s.approval, auto.Actor, auto.After, auto.Interval, s.logger)
	}
}

// Shutdown stops background workers and releases store connections.
func (s *Service) Shutdown() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.stopAutoApp != nil {
		s.stopAutoApp()
		s.stopAutoApp = nil
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	for _, closer := range s.closers {
		closer()
	}
	s.closers = nil
}

func (s *Service) newExecutor() (executor.Executor, error) {
	cfg := s.config.Executor
	switch cfg.Kind {
	case ExecutorStorage:
		return storage.New(s.fs), nil
	case ExecutorChat:
		return chat.New(&chat.Config{
			Endpoint:  cfg.Endpoint,
			Token:     cfg.Token,
			SecretURL: cfg.SecretURL,
			SecretKey: cfg.SecretKey,
			Timeout:   cfg.Timeout,
		})
	}
	return nil, fmt.Errorf("unsupported executor kind: %q", cfg.Kind)
}

func (s *Service) logExecution(target request.Target, elapsed time.Duration, err error) {
	if err != nil {
		return
	}
	s.logger.Info("content deleted",
		zap.String("target", target.String()),
		zap.Duration("elapsed", elapsed))
}

func (s *Service) init(ctx context.Context) error {
	var err error
	if s.config.Tracing.Enabled {
		if err = tracing.Init("retract", Version, s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.store == nil {
		var closer func()
		if s.store, closer, err = s.newStore(ctx); err != nil {
			return err
		}
		if closer != nil {
			s.closers = append(s.closers, closer)
		}
	}
	if s.executor == nil {
		if s.executor, err = s.newExecutor(); err != nil {
			return err
		}
	}
	exec := executor.WithTimeout(executor.WithListener(s.executor, s.logExecution), s.config.Executor.Timeout)
	if s.policy, err = policy.New(s.config.PolicyConfig(), s.membership, policy.WithLogger(s.logger)); err != nil {
		return err
	}
	notifiers := append([]notification.Notifier{notification.NewLogNotifier(s.logger)}, s.notifiers...)
	if s.config.Notification.OutboxURL != "" {
		notifiers = append(notifiers, nfs.New(s.fs, s.config.Notification.OutboxURL))
	}
	s.dispatcher = notification.New(&notification.Config{
		ReviewDestination: s.config.ReviewDestination,
		AuditDestination:  s.config.AuditDestination,
		PreviewLimit:      s.config.Notification.PreviewLimit,
		QueueBuffer:       s.config.Notification.QueueBuffer,
	}, notification.WithNotifiers(notifiers...), notification.WithLogger(s.logger))
	s.approval = approval.New(s.store, s.policy, exec,
		approval.WithPublisher(s.dispatcher),
		approval.WithLogger(s.logger))
	s.router = trigger.NewRouter(s.approval,
		trigger.WithReactions(s.config.Reactions),
		trigger.WithReviewDestination(s.config.ReviewDestination),
		trigger.WithLogger(s.logger))
	s.handler = rest.New(s.router, s.approval, s.logger)
	return nil
}

// New creates a service from a validated config.
func New(ctx context.Context, config *Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ret := &Service{config: config, logger: zap.NewNop(), fs: afs.New()}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(ctx); err != nil {
		ret.Shutdown()
		return nil, err
	}
	return ret, nil
}
