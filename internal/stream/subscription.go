package stream

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/zrougamed/cerberus-watch/internal/models"

	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

const MAX_EVENT_SIZE = 1 << 20

var ErrStreamClosed = errors.New("stream closed by server")

// Hooks receive subscription events. OnSnapshot and OnError are never called
// after Close; OnClose is called exactly once when the subscription ends.
// All hooks run on the subscription's goroutine, in arrival order.
type Hooks struct {
	OnSnapshot func(models.Snapshot)
	OnError    func(error)
	OnClose    func()
}

// Handle is an open subscription as seen by its owner.
type Handle interface {
	Close()
	Done() <-chan struct{}
}

type Subscription struct {
	client *sse.Client
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

// Subscribe connects to url in the background and returns immediately.
// Connection failures are reported through hooks.OnError. The stream is
// never reconnected.
func Subscribe(ctx context.Context, client *http.Client, url string, hooks Hooks) *Subscription {
	c := sse.NewClient(url, sse.ClientMaxBufferSize(MAX_EVENT_SIZE))
	if client != nil {
		c.Connection = client
	}
	c.ReconnectStrategy = &backoff.StopBackOff{}
	c.ResponseValidator = validateResponse

	streamCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		client: c,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.run(ctx, streamCtx, hooks)

	return s
}

// Close stops the subscription. It does not wait for the reader goroutine and
// may be called from inside a hook.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run(parent, ctx context.Context, hooks Hooks) {
	defer close(s.done)
	defer func() {
		if hooks.OnClose != nil {
			hooks.OnClose()
		}
	}()

	var malformed error
	err := s.client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		if malformed != nil || s.closed.Load() {
			return
		}
		if len(msg.Event) > 0 && string(msg.Event) != EVENT_MESSAGE {
			return
		}
		if len(msg.Data) == 0 {
			return
		}

		snap, err := DecodeSnapshot(msg.Data)
		if err != nil {
			malformed = err
			s.cancel()
			return
		}
		if hooks.OnSnapshot != nil {
			hooks.OnSnapshot(snap)
		}
	})

	switch {
	case malformed != nil:
		err = malformed
	case err == nil:
		err = ErrStreamClosed
	}
	reportable := !s.closed.Load() && parent.Err() == nil

	// Any error ends the subscription; there is no reconnect.
	s.Close()
	if reportable && hooks.OnError != nil {
		hooks.OnError(err)
	}
}

func validateResponse(c *sse.Client, resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("unexpected stream status %d from %s", resp.StatusCode, c.URL)
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != "text/event-stream" {
		resp.Body.Close()
		return fmt.Errorf("unexpected stream content type %q", resp.Header.Get("Content-Type"))
	}
	return nil
}
