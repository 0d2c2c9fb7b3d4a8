package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/mission/internal/clock"
	"github.com/viant/mission/internal/idgen"
	"github.com/viant/mission/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int           `yaml:"maxRetries" mapstructure:"maxRetries"`
	RetryDelay  time.Duration `yaml:"retryDelay" mapstructure:"retryDelay"`
	DeadLetter  bool          `yaml:"deadLetter" mapstructure:"deadLetter"`
	QueueBuffer int           `yaml:"queueBuffer" mapstructure:"queueBuffer"`
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

// Message implements messaging.Message for in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
	lastErr    error
}

// ID returns message id
func (m *Message[T]) ID() string {
	return m.id
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Attempts returns number of failed deliveries so far
func (m *Message[T]) Attempts() int {
	return m.retryCount
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack indicates a failure in processing the message; the message is
// redelivered after RetryDelay until MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	m.retryCount++
	m.lastErr = err

	if m.retryCount <= m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:         m.id,
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount,
			createdAt:  clock.Now(),
		}
		go func() {
			time.Sleep(m.queue.config.RetryDelay)
			_ = m.queue.enqueue(context.Background(), retry)
		}()
	} else if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	done     chan struct{}
	dlq      []*Message[T]
	config   Config
	closeMu  sync.RWMutex
	closed   bool
	dlqMu    sync.Mutex
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		done:     make(chan struct{}),
		dlq:      make([]*Message[T], 0),
		config:   config,
	}
}

func (q *Queue[T]) enqueue(ctx context.Context, msg *Message[T]) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return messaging.ErrClosed
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.enqueue(ctx, &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	})
}

// Offer adds a new item without blocking, ErrFull is returned when the buffer is full
func (q *Queue[T]) Offer(t *T) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return messaging.ErrClosed
	}
	select {
	case q.messages <- &Message[T]{id: idgen.New(), payload: *t, queue: q, createdAt: clock.Now()}:
		return nil
	default:
		return messaging.ErrFull
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-q.done:
		return nil, messaging.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting messages and releases blocked consumers
func (q *Queue[T]) Close() error {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns payloads of messages that exhausted retries
func (q *Queue[T]) DeadLetters() []*T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]*T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		payload := msg.payload
		ret = append(ret, &payload)
	}
	return ret
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
