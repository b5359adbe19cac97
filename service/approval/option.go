package approval

import (
	"time"

	"github.com/viant/retract/service/notification"
	"go.uber.org/zap"
)

// Option customises the approval service.
type Option func(s *Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets the lifecycle event publisher.
func WithPublisher(publisher notification.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithFinalizeRetries sets how many times a failed terminal status write is
// retried, and the delay before the first retry; the delay doubles after
// every attempt.
func WithFinalizeRetries(retries int, backoff time.Duration) Option {
	return func(s *Service) {
		if retries >= 0 {
			s.finalizeRetries = retries
		}
		if backoff > 0 {
			s.finalizeBackoff = backoff
		}
	}
}

// WithSettleWait sets how long a resolver that lost the claim waits for the
// winner to record a terminal status, polling from backoff upwards.
func WithSettleWait(timeout, backoff time.Duration) Option {
	return func(s *Service) {
		if timeout >= 0 {
			s.settleTimeout = timeout
		}
		if backoff > 0 {
			s.settleBackoff = backoff
		}
	}
}
