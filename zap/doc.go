// Package zap provides the zap-backed implementation of log.Logger.
//
// Log events emitted with a context carrying an active OpenTelemetry span
// are enriched with trace_id and span_id so step logs correlate with the
// executor's per-step spans.
package zap
