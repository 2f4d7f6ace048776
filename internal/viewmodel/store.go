// Package viewmodel holds per-screen state. Each screen keeps a source
// record that bound streams and intents update one at a time, and publishes
// the merged UI snapshot after every update.
package viewmodel

import (
	"context"
	"sync"

	"vozhatapp/internal/live"
)

type op[S any] struct {
	apply   func(*S) bool
	applied chan struct{}
}

// Store owns a source record S and derives the UI state U from it with a
// pure merge function. Updates run serially on the store's loop goroutine.
type Store[S, U any] struct {
	merge  func(S) U
	ops    chan op[S]
	out    chan U
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	current  U
	gens     map[string]uint64
	bindings map[string]func()
}

// NewStore starts the loop. The store stops when ctx ends or on Close.
func NewStore[S, U any](ctx context.Context, initial S, merge func(S) U) *Store[S, U] {
	ctx, cancel := context.WithCancel(ctx)
	st := &Store[S, U]{
		merge:    merge,
		ops:      make(chan op[S]),
		out:      make(chan U, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		gens:     make(map[string]uint64),
		bindings: make(map[string]func()),
	}
	st.current = merge(initial)
	st.out <- st.current
	go st.loop(initial)
	return st
}

// loop applies ops one at a time and publishes after each applied op
func (st *Store[S, U]) loop(state S) {
	defer close(st.done)
	defer close(st.out)
	for {
		select {
		case <-st.ctx.Done():
			return
		case o := <-st.ops:
			if o.apply(&state) {
				u := st.merge(state)
				st.mu.Lock()
				st.current = u
				st.mu.Unlock()
				st.publish(u)
			}
			if o.applied != nil {
				close(o.applied)
			}
		}
	}
}

// publish keeps only the newest unread snapshot
func (st *Store[S, U]) publish(u U) {
	for {
		select {
		case st.out <- u:
			return
		default:
		}
		select {
		case <-st.out:
		default:
		}
	}
}

// Context is cancelled when the store stops. Bound streams should be
// created with it.
func (st *Store[S, U]) Context() context.Context {
	return st.ctx
}

// Current returns the latest snapshot
func (st *Store[S, U]) Current() U {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// States delivers snapshots, skipping those a slow reader would only see
// superseded. The channel is closed when the store stops.
func (st *Store[S, U]) States() <-chan U {
	return st.out
}

// Update applies fn on the loop and waits until the resulting snapshot is
// published. It reports false when the store has stopped.
func (st *Store[S, U]) Update(fn func(*S)) bool {
	o := op[S]{
		apply:   func(s *S) bool { fn(s); return true },
		applied: make(chan struct{}),
	}
	select {
	case st.ops <- o:
	case <-st.ctx.Done():
		return false
	}
	select {
	case <-o.applied:
		return true
	case <-st.done:
		return false
	}
}

// Close stops the loop and every bound stream. No snapshot is published
// after Close returns.
func (st *Store[S, U]) Close() {
	st.cancel()
	<-st.done
	st.mu.Lock()
	stops := st.bindings
	st.bindings = make(map[string]func())
	st.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// active reports whether gen is still the slot's current binding
func (st *Store[S, U]) active(slot string, gen uint64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.gens[slot] == gen
}

// Bind feeds stream into slot. Binding a slot again closes the previous
// stream, and values it produced but the loop has not applied yet are
// dropped.
func Bind[S, U, T any](st *Store[S, U], slot string, stream *live.Stream[T], apply func(s *S, v T, err error)) {
	Rebind(st, slot, stream, nil, apply)
}

// Rebind is Bind with reset applied to the source in the same step that
// retires the previous stream, so no snapshot mixes reset state with the
// old stream's values.
func Rebind[S, U, T any](st *Store[S, U], slot string, stream *live.Stream[T], reset func(*S), apply func(s *S, v T, err error)) {
	var (
		gen  uint64
		prev func()
	)
	ok := st.Update(func(s *S) {
		st.mu.Lock()
		st.gens[slot]++
		gen = st.gens[slot]
		prev = st.bindings[slot]
		st.bindings[slot] = stream.Close
		st.mu.Unlock()
		if reset != nil {
			reset(s)
		}
	})
	if !ok {
		stream.Close()
		return
	}
	if prev != nil {
		prev()
	}

	go func() {
		for {
			select {
			case u, ok := <-stream.Updates():
				if !ok {
					return
				}
				o := op[S]{apply: func(s *S) bool {
					if !st.active(slot, gen) {
						return false
					}
					apply(s, u.Value, u.Err)
					return true
				}}
				select {
				case st.ops <- o:
				case <-st.ctx.Done():
					return
				case <-stream.Done():
					return
				}
			case <-st.ctx.Done():
				return
			}
		}
	}()
}
