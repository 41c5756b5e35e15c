package session

import (
	"context"
	"fmt"
	"sync"
)

// Post is one chat message queued for delivery.
type Post struct {
	Speaker string
	HTML    string
}

// Outbox is a host.Chat that queues posts on a channel, bridging the
// handler to a console or other reader goroutine.
type Outbox struct {
	posts chan Post
	done  chan struct{}

	mu       sync.RWMutex
	closed   bool
	doneOnce sync.Once
}

// NewOutbox creates an Outbox buffering up to bufferSize posts.
//
// Postcondition: Returns an Outbox with an open posts channel.
func NewOutbox(bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		posts: make(chan Post, bufferSize),
		done:  make(chan struct{}),
	}
}

// Send implements host.Chat. When the buffer is full Send waits for the
// reader to make room.
//
// Postcondition: The post is enqueued, or an error is returned if the
// outbox is closed or ctx ends while the buffer is full.
func (o *Outbox) Send(ctx context.Context, speaker, html string) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return fmt.Errorf("outbox is closed")
	}
	select {
	case o.posts <- Post{Speaker: speaker, HTML: html}:
		return nil
	case <-o.done:
		return fmt.Errorf("outbox is closed")
	case <-ctx.Done():
		return fmt.Errorf("outbox buffer full: %w", ctx.Err())
	}
}

// Posts returns the read-only posts channel.
func (o *Outbox) Posts() <-chan Post {
	return o.posts
}

// Close marks the outbox closed and closes the posts channel. Senders
// waiting for room return an error.
//
// Postcondition: Further Send calls return an error.
func (o *Outbox) Close() error {
	o.doneOnce.Do(func() { close(o.done) })

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.posts)
	}
	return nil
}
