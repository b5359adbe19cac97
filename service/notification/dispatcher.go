package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/viant/retract/service/messaging"
	"github.com/viant/retract/service/messaging/memory"
	"go.uber.org/zap"
)

// Dispatcher queues events and delivers rendered notices from a worker.
type Dispatcher struct {
	config    *Config
	queue     messaging.Queue[Event]
	notifiers []Notifier
	logger    *zap.Logger

	mux    sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customises a Dispatcher.
type Option func(d *Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithNotifiers appends notifiers.
func WithNotifiers(notifiers ...Notifier) Option {
	return func(d *Dispatcher) { d.notifiers = append(d.notifiers, notifiers...) }
}

// WithQueue replaces the default in-memory queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(d *Dispatcher) { d.queue = queue }
}

// Publish enqueues event. A full queue drops the event with a warning; the
// caller is never blocked on delivery.
func (d *Dispatcher) Publish(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	var err error
	if offerer, ok := d.queue.(messaging.Offerer[Event]); ok {
		err = offerer.Offer(event)
	} else {
		err = d.queue.Publish(ctx, event)
	}
	if err != nil {
		fields := []zap.Field{zap.String("topic", event.Topic), zap.Error(err)}
		if event.Request != nil {
			fields = append(fields, zap.String("correlation_key", event.Request.CorrelationKey))
		}
		d.logger.Warn("notification dropped", fields...)
	}
}

// Start launches the delivery worker; it runs until ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mux.Lock()
	defer d.mux.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop terminates the worker and waits for the in-flight event to finish.
func (d *Dispatcher) Stop() {
	d.mux.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mux.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Dispatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		message, err := d.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Warn("failed to consume notification event", zap.Error(err))
			continue
		}
		if message == nil {
			continue
		}
		d.deliver(context.WithoutCancel(ctx), message.T())
		if err = message.Ack(); err != nil {
			d.logger.Debug("failed to ack notification event", zap.Error(err))
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *Event) {
	for _, notice := range Render(event, d.config) {
		for _, notifier := range d.notifiers {
			notifyCtx, cancel := context.WithTimeout(ctx, d.config.notifyTimeout())
			err := notifier.Notify(notifyCtx, notice)
			cancel()
			if err != nil {
				d.logger.Warn("failed to deliver notice",
					zap.String("topic", event.Topic),
					zap.String("destination", notice.Destination),
					zap.String("audience", notice.Audience),
					zap.Error(err))
			}
		}
	}
}

// New creates a dispatcher; call Start to begin delivery.
func New(config *Config, options ...Option) *Dispatcher {
	if config == nil {
		config = &Config{}
	}
	ret := &Dispatcher{config: config, logger: zap.NewNop()}
	for _, option := range options {
		option(ret)
	}
	if ret.queue == nil {
		queueConfig := memory.DefaultConfig()
		if config.QueueBuffer > 0 {
			queueConfig.QueueBuffer = config.QueueBuffer
		}
		queueConfig.MaxRetries = 0
		ret.queue = memory.NewQueue[Event](queueConfig)
	}
	return ret
}

var _ Publisher = (*Dispatcher)(nil)
