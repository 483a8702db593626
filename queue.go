package quiver

import (
	"cmp"
	"container/heap"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quivertask/quiver/future"
	"github.com/quivertask/quiver/hook"
	"github.com/quivertask/quiver/middleware"
	"github.com/quivertask/quiver/task"
)

// TaskFunc is a unit of asynchronous work: it runs under a context and
// produces a value or an error.
type TaskFunc func(ctx context.Context) (any, error)

// Runner starts an operation and is how the queue learns of its outcome:
// the queue hands Go a closure that executes the task and reports back
// through the scheduling step. The default implementation spawns a
// goroutine; tests substitute synchronous runners for deterministic
// interleaving.
type Runner interface {
	Go(fn func())
}

// goRunner is the default Runner.
type goRunner struct{}

func (goRunner) Go(fn func()) { go fn() }

// entry is a pending or running task: the queue-visible record, the work
// function, and the caller's future.
type entry struct {
	task *task.Task
	work TaskFunc
	fut  *future.Future[any]

	// seq breaks priority ties so equal-priority tasks dequeue FIFO.
	seq uint64

	// index is maintained by container/heap.
	index int
}

// pendingHeap orders entries by priority (higher first), then by
// submission sequence (earlier first). The sequence key makes the order
// total, so equal-priority tasks can never reorder relative to arrival.
type pendingHeap []*entry

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority > h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h pendingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pendingHeap) Push(x any) {
	e := x.(*entry) //nolint:errcheck // heap only ever holds *entry
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is a bounded-concurrency, priority-ordered task queue.
//
// All mutation happens inside one mutex-guarded critical section entered
// from Submit, Start, Pause, Clear, and task settlement. Task bodies run
// outside the lock; the queue's own bookkeeping never blocks on them.
type Queue struct {
	mu            sync.Mutex
	limit         int
	paused        bool
	pending       pendingHeap
	running       int
	seq           uint64
	idleObservers []func()

	logger  *slog.Logger
	hooks   *hook.Registry
	mw      middleware.Middleware
	limiter *rate.Limiter
	runner  Runner
}

// New creates a Queue with the given options. The defaults are
// concurrency 1, auto-start on, a goroutine runner, and a middleware
// chain of Recover and Timeout.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{
		limit:  1,
		logger: slog.Default(),
		runner: goRunner{},
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	if q.hooks == nil {
		q.hooks = hook.NewRegistry(q.logger)
	}
	if q.mw == nil {
		q.mw = middleware.Chain(
			middleware.Recover(q.logger),
			middleware.Timeout(q.logger),
		)
	}
	return q, nil
}

// Hooks returns the queue's lifecycle hook registry.
func (q *Queue) Hooks() *hook.Registry { return q.hooks }

// Submit enqueues work and returns a future that settles with the task's
// outcome: its result, its error, or ErrTaskDiscarded if the task is
// cleared before running. When auto-start is on and capacity allows, the
// task may begin executing before Submit returns.
func (q *Queue) Submit(work TaskFunc, opts ...task.SubmitOption) *future.Future[any] {
	t := task.New(opts...)
	f := future.New[any]()

	q.logger.Debug("task submitted",
		slog.String("task_id", t.ID.String()),
		slog.String("task_name", t.Name),
		slog.Int("priority", t.Priority),
	)

	// Emit before the entry enters the pending heap. Once it is pushed,
	// a scheduling step on another goroutine may pop it and start
	// mutating task state, so hooks must finish reading the task first.
	// This also fixes hook ordering: TaskSubmitted always precedes
	// TaskStarted for the same task.
	q.hooks.EmitTaskSubmitted(context.Background(), t)

	q.mu.Lock()
	e := &entry{task: t, work: work, fut: f, seq: q.seq}
	q.seq++
	heap.Push(&q.pending, e)
	q.mu.Unlock()

	q.dispatch()
	return f
}

// Submit enqueues typed work on q and returns a typed future.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Submit[T any](q *Queue, work func(ctx context.Context) (T, error), opts ...task.SubmitOption) *future.Future[T] {
	typed := future.New[T]()

	inner := q.Submit(func(ctx context.Context) (any, error) {
		return work(ctx)
	}, opts...)

	// Bridge the untyped settlement. The queue settles every future
	// exactly once, so this goroutine always terminates.
	go func() {
		v, err := inner.Await(context.Background())
		if err != nil {
			typed.Reject(err)
			return
		}
		tv, _ := v.(T) // zero T when the work returned a nil interface
		typed.Resolve(tv)
	}()

	return typed
}

// Start clears the paused state and invokes the scheduling step.
// Idempotent.
func (q *Queue) Start() {
	q.mu.Lock()
	wasPaused := q.paused
	q.paused = false
	q.mu.Unlock()

	if wasPaused {
		q.hooks.EmitQueueResumed(context.Background())
	}
	q.dispatch()
}

// Pause stops new tasks from starting. Tasks already running are
// unaffected and still trigger scheduling checks when they settle.
func (q *Queue) Pause() {
	q.mu.Lock()
	wasPaused := q.paused
	q.paused = true
	q.mu.Unlock()

	if !wasPaused {
		q.hooks.EmitQueuePaused(context.Background())
	}
}

// Clear discards every pending task, settling each future with
// ErrTaskDiscarded. Running tasks, the running count, and the pause
// state are untouched. If nothing is running, clearing pending work is
// itself an idle transition.
func (q *Queue) Clear() {
	q.mu.Lock()
	discarded := make([]*entry, len(q.pending))
	copy(discarded, q.pending)
	q.pending = q.pending[:0]

	idle := len(discarded) > 0 && q.running == 0
	var observers []func()
	if idle {
		observers = slices.Clone(q.idleObservers)
	}
	q.mu.Unlock()

	// Settle in dequeue order so waiters see deterministic rejection
	// order.
	slices.SortFunc(discarded, func(a, b *entry) int {
		if c := cmp.Compare(b.task.Priority, a.task.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	ctx := context.Background()
	for _, e := range discarded {
		_ = e.task.Transition(task.StateDiscarded)
		e.fut.Reject(ErrTaskDiscarded)
		q.hooks.EmitTaskDiscarded(ctx, e.task)
	}

	if idle {
		q.notifyIdle(observers)
	}
}

// OnIdle registers an observer invoked on every idle transition, that
// is, each time the queue moves from having pending or running work to
// having neither. Observers fire in registration order and are not
// one-shot.
func (q *Queue) OnIdle(fn func()) {
	q.mu.Lock()
	q.idleObservers = append(q.idleObservers, fn)
	q.mu.Unlock()
}

// Len returns the number of pending (not yet started) tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the number of currently executing tasks.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// IsPaused reports whether the queue is paused.
func (q *Queue) IsPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// dispatch is the scheduling step: while capacity, pause state, and the
// rate limiter allow, pop the highest-priority-earliest-arrival entry and
// start it. Invoked after every submission, resume, and settlement.
func (q *Queue) dispatch() {
	for {
		q.mu.Lock()
		if q.paused || q.running >= q.limit || len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}

		if q.limiter != nil {
			r := q.limiter.Reserve()
			if d := r.Delay(); d > 0 {
				// No token yet: give it back and retry once one
				// would be available.
				r.Cancel()
				q.mu.Unlock()
				time.AfterFunc(d, q.dispatch)
				return
			}
		}

		e := heap.Pop(&q.pending).(*entry) //nolint:errcheck // heap only ever holds *entry
		q.running++
		_ = e.task.Transition(task.StateRunning)
		q.mu.Unlock()

		q.runner.Go(func() { q.execute(e) })
	}
}

// execute runs one task through the middleware chain, settles its future,
// performs the idle check, and re-invokes the scheduling step.
func (q *Queue) execute(e *entry) {
	ctx := context.Background()
	q.hooks.EmitTaskStarted(ctx, e.task)

	var out any
	terminal := func(ctx context.Context) error {
		v, err := e.work(ctx)
		out = v
		return err
	}

	start := time.Now()
	err := q.mw(ctx, e.task, terminal)
	elapsed := time.Since(start)

	q.mu.Lock()
	q.running--
	if err != nil {
		e.task.LastError = err.Error()
		_ = e.task.Transition(task.StateFailed)
	} else {
		_ = e.task.Transition(task.StateCompleted)
	}
	idle := q.running == 0 && len(q.pending) == 0
	var observers []func()
	if idle {
		observers = slices.Clone(q.idleObservers)
	}
	q.mu.Unlock()

	// Settle the waiter before idle observers run: idle means "all
	// outcomes delivered".
	if err != nil {
		e.fut.Reject(err)
		q.hooks.EmitTaskFailed(ctx, e.task, err)
		q.logger.Debug("task failed",
			slog.String("task_id", e.task.ID.String()),
			slog.String("task_name", e.task.Name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	} else {
		e.fut.Resolve(out)
		q.hooks.EmitTaskCompleted(ctx, e.task, elapsed)
		q.logger.Debug("task completed",
			slog.String("task_id", e.task.ID.String()),
			slog.String("task_name", e.task.Name),
			slog.Duration("elapsed", elapsed),
		)
	}

	if idle {
		q.notifyIdle(observers)
	}

	q.dispatch()
}

// notifyIdle fires idle observers in registration order, then the
// QueueIdle hooks.
func (q *Queue) notifyIdle(observers []func()) {
	for _, fn := range observers {
		fn()
	}
	q.hooks.EmitQueueIdle(context.Background())
}
