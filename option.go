package retract

import (
	"github.com/viant/afs"
	"github.com/viant/retract/policy"
	"github.com/viant/retract/service/dao/deletion"
	"github.com/viant/retract/service/executor"
	"github.com/viant/retract/service/notification"
	"go.uber.org/zap"
)

// Option customises the Service.
type Option func(s *Service)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore overrides the configured request store.
func WithStore(store deletion.Service) Option {
	return func(s *Service) { s.store = store }
}

// WithExecutor overrides the configured privileged executor.
func WithExecutor(exec executor.Executor) Option {
	return func(s *Service) { s.executor = exec }
}

// WithMembership sets the reviewer audience membership source.
func WithMembership(membership policy.Membership) Option {
	return func(s *Service) { s.membership = membership }
}

// WithNotifiers adds notifiers next to the log and outbox notifiers.
func WithNotifiers(notifiers ...notification.Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, notifiers...) }
}

// WithFileSystem sets the afs service used by fs backed components.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		if fs != nil {
			s.fs = fs
		}
	}
}
