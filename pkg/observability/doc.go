/*
Package observability turns flow lifecycle events into metrics, logs and traces.

Metrics registers the bookclub counters on a prometheus registerer and exposes
them as domain.LifecycleHooks, so the flow service never imports prometheus.
LogHooks does the same for slog, and NewTracerProvider installs the global
OpenTelemetry provider used by the flow and admin spans.
*/
package observability
