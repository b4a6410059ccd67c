// Package store implements the runtime that owns a feature's state: it
// serializes reductions, publishes state snapshots and runs effects.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/google/uuid"
)

// Store is a handle on state S driven by actions A.
//
// A root store (New) owns its state and effect runtime. A scoped store (Scope,
// IfLet) is a view over its parent: it reads through a projection, embeds its
// actions into the parent's, and shares the root's runtime, so cancellation of
// effects started on behalf of a child reaches them.
type Store[S, A any] struct {
	id     string
	rt     *effect.Runtime
	logger *slog.Logger

	read      func() (S, uint64, string)
	dispatch  func(origin context.Context, action A, task *Task)
	subscribe func(fn func(prev, next S)) func()
	close     func()
}

type queued[A any] struct {
	action A
	task   *Task
	origin context.Context
}

type observer[S any] struct {
	id int
	fn func(prev, next S)
}

type root[S, A any] struct {
	id      string
	rt      *effect.Runtime
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	reducer reducer.Reducer[S, A]

	mu         sync.Mutex
	state      S
	version    uint64
	lastAction string
	queue      []queued[A]
	draining   bool
	closed     bool

	obsMu     sync.Mutex
	observers []observer[S]
	nextObs   int
}

// New creates a root store holding initial and evolving it with r.
func New[S, A any](initial S, r reducer.Reducer[S, A], opts ...Option) *Store[S, A] {
	cfg := &config{
		ctx:    context.Background(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	rt := effect.NewRuntime(cfg.ctx,
		effect.WithLogger(cfg.logger),
		effect.WithLifecycleHooks(cfg.hooks),
		effect.WithStoreID(cfg.id),
	)
	r0 := &root[S, A]{
		id:      cfg.id,
		rt:      rt,
		logger:  cfg.logger,
		hooks:   cfg.hooks,
		reducer: r,
		state:   initial,
	}

	return &Store[S, A]{
		id:        cfg.id,
		rt:        rt,
		logger:    cfg.logger,
		read:      r0.read,
		dispatch:  r0.enqueue,
		subscribe: r0.subscribe,
		close:     r0.close,
	}
}

// ID returns the identifier of the root store.
func (s *Store[S, A]) ID() string {
	return s.id
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	state, _, _ := s.read()
	return state
}

// Snapshot returns the current state wrapped in a transport envelope.
func (s *Store[S, A]) Snapshot() domain.Snapshot {
	state, version, action := s.read()
	return domain.Snapshot{
		StoreID:   s.id,
		Version:   version,
		Action:    action,
		Timestamp: time.Now(),
		State:     state,
	}
}

// Send reduces action and starts the resulting effect. When no other goroutine
// is currently reducing, the reduction (and that of every action queued
// meanwhile) happens before Send returns.
func (s *Store[S, A]) Send(action A) *Task {
	t := newTask(s.rt.Context())
	s.dispatch(nil, action, t)
	return t
}

// Observe registers fn to be called after every reduction with the state before
// and after it. Calls are serialized in reduction order. The returned function
// unregisters fn.
func (s *Store[S, A]) Observe(fn func(prev, next S)) func() {
	return s.subscribe(fn)
}

// Updates delivers the current state and then the latest state after each
// change. Slow receivers only see the most recent value. The channel is closed
// when ctx is done.
func (s *Store[S, A]) Updates(ctx context.Context) <-chan S {
	return latest(ctx, s, s.State)
}

// Watch is Updates for transports: every value is a Snapshot envelope.
func (s *Store[S, A]) Watch(ctx context.Context) <-chan domain.Snapshot {
	return latest(ctx, s, s.Snapshot)
}

func latest[S, A, T any](ctx context.Context, s *Store[S, A], get func() T) <-chan T {
	ch := make(chan T, 1)
	var (
		mu     sync.Mutex
		closed bool
	)
	push := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- get()
	}

	cancel := s.Observe(func(_, _ S) { push() })
	push()

	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

// InFlight returns the number of running effect operations of the root store.
func (s *Store[S, A]) InFlight() int {
	return s.rt.InFlight()
}

// Wait blocks until every in-flight effect returned or ctx is done.
func (s *Store[S, A]) Wait(ctx context.Context) error {
	return s.rt.Wait(ctx)
}

// Close cancels every in-flight effect of the root store. Actions sent after
// Close are dropped. Closing a scoped child store has no effect.
func (s *Store[S, A]) Close() {
	s.close()
}

func (r *root[S, A]) read() (S, uint64, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.version, r.lastAction
}

func (r *root[S, A]) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.rt.Close()
}

// enqueue appends the action and, unless another goroutine is already
// draining, drains the queue on the calling goroutine.
func (r *root[S, A]) enqueue(origin context.Context, action A, t *Task) {
	if t == nil {
		t = newTask(r.rt.Context())
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.rt.Dropped(r.rt.Context(), action, domain.ErrStoreClosed.Error())
		t.finish()
		return
	}
	r.queue = append(r.queue, queued[A]{action: action, task: t, origin: origin})
	if r.draining {
		r.mu.Unlock()
		return
	}
	r.draining = true
	r.mu.Unlock()

	r.drain()
}

func (r *root[S, A]) drain() {
	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.draining = false
			r.mu.Unlock()
			panic(p)
		}
	}()

	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.draining = false
			r.mu.Unlock()
			return
		}
		q := r.queue[0]
		var zero queued[A]
		r.queue[0] = zero
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.process(q)
	}
}

func (r *root[S, A]) process(q queued[A]) {
	if effect.Stale(q.origin) {
		r.rt.Dropped(q.origin, q.action, "stale")
		q.task.finish()
		return
	}

	start := time.Now()
	name := domain.ActionName(q.action)

	prev, next, e, version := r.reduce(q.action, name)

	ctx := r.rt.Context()
	if r.hooks.OnAction != nil {
		r.hooks.OnAction(ctx, &domain.ActionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAction, StoreID: r.id},
			Action:    q.action,
			Name:      name,
			Duration:  time.Since(start),
		})
	}
	if r.hooks.OnStateChange != nil {
		r.hooks.OnStateChange(ctx, &domain.StateEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateChange, StoreID: r.id},
			Version:   version,
			Action:    name,
		})
	}

	r.publish(prev, next)

	effect.Execute(q.task.ctx, r.rt, e, func(origin context.Context, a A) {
		r.enqueue(origin, a, nil)
	}, q.task.finish)
}

func (r *root[S, A]) reduce(action A, name string) (prev, next S, e effect.Effect[A], version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.state
	next, e = r.reducer.Reduce(prev, action)
	r.state = next
	r.version++
	r.lastAction = name
	return prev, next, e, r.version
}

func (r *root[S, A]) publish(prev, next S) {
	r.obsMu.Lock()
	observers := make([]observer[S], len(r.observers))
	copy(observers, r.observers)
	r.obsMu.Unlock()

	for _, o := range observers {
		o.fn(prev, next)
	}
}

func (r *root[S, A]) subscribe(fn func(prev, next S)) func() {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.nextObs++
	id := r.nextObs
	r.observers = append(r.observers, observer[S]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.obsMu.Lock()
			defer r.obsMu.Unlock()
			for i, o := range r.observers {
				if o.id == id {
					r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
					return
				}
			}
		})
	}
}
