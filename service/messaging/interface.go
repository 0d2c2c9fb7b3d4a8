package messaging

import (
	"context"
	"errors"
)

// ErrClosed is returned when publishing to or consuming from a closed queue
var ErrClosed = errors.New("messaging: queue closed")

// ErrFull is returned by Offer when the queue has no free capacity
var ErrFull = errors.New("messaging: queue full")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue, blocking until one
	// is available or ctx is done
	Consume(ctx context.Context) (Message[T], error)
}

// Offerer is implemented by bounded queues that can publish without blocking
type Offerer[T any] interface {
	// Offer adds a new message when capacity allows, otherwise returns ErrFull
	Offer(t *T) error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns message identifier
	ID() string

	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
