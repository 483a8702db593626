// Package observability provides a hook that records queue lifecycle
// metrics through OpenTelemetry. Register it on the queue's hook registry
// to automatically track submission, completion, failure, and discard
// counts, task durations, and idle transitions.
package observability
