package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/retract/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is an in-memory queue message
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempt   int
	mu        sync.Mutex
	processed bool
	lastError error
}

// ID returns the message id, stable across retries
func (m *Message[T]) ID() string { return m.id }

// Attempt returns the zero based delivery attempt
func (m *Message[T]) Attempt() int { return m.attempt }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

func (m *Message[T]) settle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	return nil
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.settle()
}

// Nack schedules a redelivery, or moves the message to the dead letter list
// once retries are exhausted
func (m *Message[T]) Nack(err error) error {
	if e := m.settle(); e != nil {
		return e
	}
	m.lastError = err
	if m.attempt < m.queue.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, attempt: m.attempt + 1}
		time.AfterFunc(m.queue.config.RetryDelay, func() { m.queue.requeue(retry) })
		return nil
	}
	m.queue.deadLetter(m)
	return nil
}

// Queue implements an in-memory, bounded messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	dlqMu    sync.Mutex
	dlq      []*Message[T]
}

func (q *Queue[T]) newMessage(t *T) *Message[T] {
	return &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
}

func (q *Queue[T]) requeue(m *Message[T]) {
	select {
	case q.messages <- m:
	default:
		m.lastError = messaging.ErrQueueFull
		q.deadLetter(m)
	}
}

func (q *Queue[T]) deadLetter(m *Message[T]) {
	if !q.config.DeadLetter {
		return
	}
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, m)
	q.dlqMu.Unlock()
}

// Publish adds a new item to the queue, waiting for buffer space until ctx is done
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.messages <- q.newMessage(t):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Offer adds a new item to the queue without waiting
func (q *Queue[T]) Offer(t *T) error {
	select {
	case q.messages <- q.newMessage(t):
		return nil
	default:
		return messaging.ErrQueueFull
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns copies of dead lettered payloads
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]T, len(q.dlq))
	for i, m := range q.dlq {
		ret[i] = m.payload
	}
	return ret
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
var _ messaging.Offerer[any] = (*Queue[any])(nil)
