package ingest

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned by a MockConn read after Close.
var ErrSessionClosed = errors.New("session closed")

// MockDialer provides a testable Dialer implementation. Dial outcomes
// are queued in order; once exhausted, every dial fails with
// DefaultError.
type MockDialer struct {
	mu       sync.Mutex
	outcomes []mockOutcome
	dials    int

	// DefaultError is returned when the outcome queue is empty.
	DefaultError error

	// Dialled receives one token per Dial call, so tests can wait
	// for the next attempt without polling.
	Dialled chan struct{}
}

type mockOutcome struct {
	conn Conn
	err  error
}

// NewMockDialer creates a mock dialer with no queued outcomes.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		DefaultError: errors.New("connection refused"),
		Dialled:      make(chan struct{}, 64),
	}
}

// AddConn queues a successful dial outcome.
func (d *MockDialer) AddConn(c Conn) *MockDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, mockOutcome{conn: c})
	return d
}

// AddError queues a failed dial outcome.
func (d *MockDialer) AddError(err error) *MockDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, mockOutcome{err: err})
	return d
}

// Dial returns the next queued outcome.
func (d *MockDialer) Dial(ctx context.Context, address string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.dials++
	var out mockOutcome
	if len(d.outcomes) > 0 {
		out = d.outcomes[0]
		d.outcomes = d.outcomes[1:]
	} else {
		out = mockOutcome{err: d.DefaultError}
	}
	d.mu.Unlock()

	select {
	case d.Dialled <- struct{}{}:
	default:
	}

	if out.err != nil {
		return nil, out.err
	}
	return out.conn, nil
}

// DialCount returns the number of Dial calls so far.
func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// MockConn is a scripted session for testing. Messages queued with
// QueueMessage are delivered in order; Fail or Close ends the session
// and unblocks a pending read.
type MockConn struct {
	mu     sync.Mutex
	msgs   chan []byte
	done   chan struct{}
	err    error
	closed bool
}

// NewMockConn creates an open mock session.
func NewMockConn() *MockConn {
	return &MockConn{
		msgs: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// QueueMessage makes payload available to a subsequent ReadMessage.
func (c *MockConn) QueueMessage(payload []byte) {
	c.msgs <- payload
}

// Fail ends the session; the pending or next read returns err.
func (c *MockConn) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	close(c.done)
}

// Close ends the session with ErrSessionClosed.
func (c *MockConn) Close() error {
	c.Fail(ErrSessionClosed)
	return nil
}

// Closed reports whether the session has ended.
func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadMessage returns the next queued message, draining the queue
// before reporting session end.
func (c *MockConn) ReadMessage() ([]byte, error) {
	select {
	case payload := <-c.msgs:
		return payload, nil
	default:
	}
	select {
	case payload := <-c.msgs:
		return payload, nil
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.err
	}
}
