// Package quiver provides a bounded-concurrency, priority-ordered
// asynchronous task queue. Tasks are submitted as ordinary Go functions
// and awaited through per-task futures; the queue enforces a concurrency
// ceiling, dequeues pending work by priority (FIFO among equals), and
// supports pausing, draining, and idle notification.
//
// # Quick Start
//
//	q, err := quiver.New(
//	    quiver.WithConcurrency(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	handle := quiver.Submit(q, func(ctx context.Context) (string, error) {
//	    return fetchReport(ctx)
//	}, task.WithPriority(5))
//
//	report, err := handle.Await(ctx)
//
// # Architecture
//
// The queue is a single mutex-guarded state machine: submission, the
// scheduling step, and task settlement are its only mutation points, and
// every settlement re-invokes the scheduling step, which is the sole
// driver of forward progress. Cross-cutting behaviour is layered on
// through hooks (lifecycle events), middleware (per-task wrapping), and
// the stream broker (topic-based pub/sub of queue events).
//
// All entity IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package quiver
