package effect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/domain"
)

// ErrCompleted is the cancellation cause recorded on the context of an
// execution that reached its end without being cancelled.
var ErrCompleted = errors.New("effect completed")

// Stale reports whether ctx belongs to an execution that was cancelled, as
// opposed to one that completed. Actions produced under a stale context must
// not be reduced.
func Stale(ctx context.Context) bool {
	if ctx == nil || ctx.Err() == nil {
		return false
	}
	return !errors.Is(context.Cause(ctx), ErrCompleted)
}

// idKey is the registry key of a cancellable execution: the identity resolved
// relative to the scope path it was started in.
type idKey struct {
	path string
	id   any
}

// execution is one live registry entry.
type execution struct {
	seq    uint64
	path   string
	key    *idKey
	isRun  bool
	cancel context.CancelCauseFunc
}

// Runtime is the registry of in-flight effects for one store.
// It is safe for concurrent use; it must not be shared between stores.
type Runtime struct {
	ctx     context.Context
	stop    context.CancelFunc
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	storeID string

	mu     sync.Mutex
	byID   map[idKey]*execution
	live   map[*execution]struct{}
	runs   int
	closed bool

	// goroutines counts operation goroutines; idle is closed whenever it
	// drops to zero and replaced when work starts again.
	goroutines int
	idle       chan struct{}

	seq atomic.Uint64
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger used for effect failures and dropped actions.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for effect executions.
func WithLifecycleHooks(hooks domain.LifecycleHooks) RuntimeOption {
	return func(rt *Runtime) {
		rt.hooks = hooks
	}
}

// WithStoreID labels events emitted by the runtime.
func WithStoreID(id string) RuntimeOption {
	return func(rt *Runtime) {
		rt.storeID = id
	}
}

// NewRuntime creates a registry whose executions all derive from parent.
func NewRuntime(parent context.Context, opts ...RuntimeOption) *Runtime {
	if parent == nil {
		parent = context.Background()
	}
	rt := &Runtime{
		byID:   make(map[idKey]*execution),
		live:   make(map[*execution]struct{}),
		logger: logging.NewNop(),
		idle:   make(chan struct{}),
	}
	close(rt.idle)
	for _, opt := range opts {
		opt(rt)
	}
	rt.ctx, rt.stop = context.WithCancel(parent)
	return rt
}

// Context returns the root context of the runtime. It is done once Close is called.
func (rt *Runtime) Context() context.Context {
	return rt.ctx
}

// InFlight returns the number of running operations.
func (rt *Runtime) InFlight() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.runs
}

// IsRegistered reports whether an execution is currently registered under id
// at the root scope.
func (rt *Runtime) IsRegistered(id any) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.byID[idKey{id: id}]
	return ok
}

// CancelID cancels the root-scope execution registered under id.
func (rt *Runtime) CancelID(id any) {
	rt.cancelID("", id)
}

// Wait blocks until every operation has returned or ctx is done. Operations
// started while waiting are waited for as well.
func (rt *Runtime) Wait(ctx context.Context) error {
	for {
		rt.mu.Lock()
		if rt.goroutines == 0 {
			rt.mu.Unlock()
			return nil
		}
		idle := rt.idle
		rt.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d effects: %w", rt.InFlight(), ctx.Err())
		}
	}
}

func (rt *Runtime) begin() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.goroutines == 0 {
		rt.idle = make(chan struct{})
	}
	rt.goroutines++
}

func (rt *Runtime) end() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.goroutines--
	if rt.goroutines == 0 {
		close(rt.idle)
	}
}

// Close cancels every in-flight effect and rejects new ones.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	rt.closed = true
	rt.mu.Unlock()
	rt.stop()
}

func (rt *Runtime) track(parent context.Context, path string, id any, isRun bool) (context.Context, *execution) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed || parent.Err() != nil {
		return nil, nil
	}

	ctx, cancel := context.WithCancelCause(parent)
	x := &execution{
		seq:    rt.seq.Add(1),
		path:   path,
		isRun:  isRun,
		cancel: cancel,
	}
	if id != nil {
		k := idKey{path: path, id: id}
		if prev, ok := rt.byID[k]; ok {
			prev.cancel(nil)
			rt.logger.Debug("effect replaced", "store_id", rt.storeID, "effect_id", fmt.Sprint(id), "scope", path)
		}
		x.key = &k
		rt.byID[k] = x
	}
	rt.live[x] = struct{}{}
	if isRun {
		rt.runs++
	}
	return ctx, x
}

func (rt *Runtime) untrack(x *execution) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.live[x]; !ok {
		return
	}
	delete(rt.live, x)
	if x.isRun {
		rt.runs--
	}
	if x.key != nil && rt.byID[*x.key] == x {
		delete(rt.byID, *x.key)
	}
	x.cancel(ErrCompleted)
}

func (rt *Runtime) cancelID(path string, id any) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	k := idKey{path: path, id: id}
	if x, ok := rt.byID[k]; ok {
		delete(rt.byID, k)
		x.cancel(nil)
	}
}

func (rt *Runtime) cancelScope(scope string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for x := range rt.live {
		if x.path == scope || strings.HasPrefix(x.path, scope+"/") {
			x.cancel(nil)
			if x.key != nil && rt.byID[*x.key] == x {
				delete(rt.byID, *x.key)
			}
		}
	}
}

func (rt *Runtime) event(t domain.EventType, x *execution, id any) *domain.EffectEvent {
	e := &domain.EffectEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, StoreID: rt.storeID},
		Seq:       x.seq,
		Scope:     x.path,
	}
	if id != nil {
		e.ID = fmt.Sprint(id)
	}
	return e
}

// Dropped reports an action that will not be reduced.
func (rt *Runtime) Dropped(ctx context.Context, action any, reason string) {
	rt.logger.Debug("action dropped", "store_id", rt.storeID, "action", domain.ActionName(action), "reason", reason)
	if rt.hooks.OnActionDropped != nil {
		rt.hooks.OnActionDropped(ctx, &domain.ActionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventActionDropped, StoreID: rt.storeID},
			Action:    action,
			Name:      domain.ActionName(action),
			Reason:    reason,
		})
	}
}

func joinPath(path string, key any) string {
	return path + "/" + fmt.Sprintf("%T(%v)", key, key)
}
