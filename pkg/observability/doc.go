/*
Package observability provides lifecycle hooks for monitoring the statecraft engine.

Metrics exposes Prometheus collectors fed by engine events, and LoggingHooks
writes an audit trail of definition, instance and transition events to slog.
Both return domain.LifecycleHooks that can be merged and passed to the engine.
*/
package observability
