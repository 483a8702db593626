package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quivertask/quiver/hook"
	"github.com/quivertask/quiver/task"
)

// meterName is the instrumentation scope name for quiver observability.
const meterName = "github.com/quivertask/quiver/observability"

// Compile-time interface checks.
var (
	_ hook.Hook          = (*Metrics)(nil)
	_ hook.TaskSubmitted = (*Metrics)(nil)
	_ hook.TaskCompleted = (*Metrics)(nil)
	_ hook.TaskFailed    = (*Metrics)(nil)
	_ hook.TaskDiscarded = (*Metrics)(nil)
	_ hook.QueueIdle     = (*Metrics)(nil)
)

// Metrics records queue-wide lifecycle metrics via OTel instruments.
//
// Instruments:
//   - quiver.queue.submitted / completed / failed / discarded
//     (Int64Counter): lifecycle totals, completed and failed carry a
//     task_name attribute
//   - quiver.queue.idle_transitions (Int64Counter): idle transition count
//   - quiver.queue.task_duration (Float64Histogram): settled task
//     durations in seconds
type Metrics struct {
	submitted metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	discarded metric.Int64Counter
	idle      metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetrics creates a Metrics hook using the global OTel MeterProvider.
// With no provider configured, the instruments are noops.
func NewMetrics() *Metrics {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates a Metrics hook with the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func NewMetricsWithMeter(meter metric.Meter) *Metrics {
	m := &Metrics{}

	// On error the OTel API returns noop instruments, so the hook
	// degrades gracefully.
	m.submitted, _ = meter.Int64Counter(
		"quiver.queue.submitted",
		metric.WithDescription("Total tasks submitted"),
		metric.WithUnit("{task}"),
	)
	m.completed, _ = meter.Int64Counter(
		"quiver.queue.completed",
		metric.WithDescription("Total tasks completed successfully"),
		metric.WithUnit("{task}"),
	)
	m.failed, _ = meter.Int64Counter(
		"quiver.queue.failed",
		metric.WithDescription("Total tasks that failed"),
		metric.WithUnit("{task}"),
	)
	m.discarded, _ = meter.Int64Counter(
		"quiver.queue.discarded",
		metric.WithDescription("Total pending tasks discarded by Clear"),
		metric.WithUnit("{task}"),
	)
	m.idle, _ = meter.Int64Counter(
		"quiver.queue.idle_transitions",
		metric.WithDescription("Number of idle transitions"),
		metric.WithUnit("{transition}"),
	)
	m.duration, _ = meter.Float64Histogram(
		"quiver.queue.task_duration",
		metric.WithDescription("Duration of settled tasks in seconds"),
		metric.WithUnit("s"),
	)

	return m
}

// Name implements hook.Hook.
func (m *Metrics) Name() string { return "observability-metrics" }

// OnTaskSubmitted implements hook.TaskSubmitted.
func (m *Metrics) OnTaskSubmitted(ctx context.Context, _ *task.Task) error {
	m.submitted.Add(ctx, 1)
	return nil
}

// OnTaskCompleted implements hook.TaskCompleted.
func (m *Metrics) OnTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) error {
	attrs := metric.WithAttributes(attribute.String("task_name", t.Name))
	m.completed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnTaskFailed implements hook.TaskFailed.
func (m *Metrics) OnTaskFailed(ctx context.Context, t *task.Task, _ error) error {
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("task_name", t.Name)))
	return nil
}

// OnTaskDiscarded implements hook.TaskDiscarded.
func (m *Metrics) OnTaskDiscarded(ctx context.Context, _ *task.Task) error {
	m.discarded.Add(ctx, 1)
	return nil
}

// OnQueueIdle implements hook.QueueIdle.
func (m *Metrics) OnQueueIdle(ctx context.Context) error {
	m.idle.Add(ctx, 1)
	return nil
}
