package live

import "context"

// Update is one delivery of a watched query.
type Update[T any] struct {
	Value T
	Err   error
}

// Loader runs the watched query.
type Loader[T any] func(ctx context.Context) (T, error)

// Stream is an observable query result. The channel returned by Updates
// holds at most the latest undelivered value.
type Stream[T any] struct {
	out    chan Update[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch subscribes to tables and returns immediately. The first update
// carries the initial result; later updates follow each change to any of
// the tables.
func Watch[T any](ctx context.Context, h *Hub, load Loader[T], tables ...string) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		out:    make(chan Update[T], 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	// Subscribe before the first load so no change between the two is lost.
	id, signal := h.subscribe(tables)

	go func() {
		defer close(s.done)
		defer close(s.out)
		defer s.drain()
		defer h.unsubscribe(id)

		for {
			lctx, lcancel := h.loadContext(ctx)
			value, err := load(lctx)
			lcancel()
			if ctx.Err() != nil {
				return
			}
			s.deliver(Update[T]{Value: value, Err: err})

			select {
			case <-ctx.Done():
				return
			case <-signal:
				h.metrics.Reloaded(tables)
			}
		}
	}()
	return s
}

// Updates returns the delivery channel. It is closed once the stream stops.
func (s *Stream[T]) Updates() <-chan Update[T] {
	return s.out
}

// Next waits for the next update or for ctx to end.
func (s *Stream[T]) Next(ctx context.Context) (Update[T], bool) {
	select {
	case u, ok := <-s.out:
		return u, ok
	case <-ctx.Done():
		return Update[T]{Err: ctx.Err()}, false
	}
}

// Close stops the stream. No update is delivered after Close returns.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}

// Done is closed after the stream stopped.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Stream[T]) deliver(u Update[T]) {
	for {
		select {
		case s.out <- u:
			return
		default:
		}
		// Replace the unread older value.
		select {
		case <-s.out:
		default:
		}
	}
}

func (s *Stream[T]) drain() {
	select {
	case <-s.out:
	default:
	}
}

// Static returns a stream that delivers a single value and then waits for
// Close. Used where a query has nothing to watch, such as an empty search.
func Static[T any](ctx context.Context, value T) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		out:    make(chan Update[T], 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.out <- Update[T]{Value: value}
	go func() {
		defer close(s.done)
		defer close(s.out)
		defer s.drain()
		<-ctx.Done()
	}()
	return s
}
