// Package instrumentation provides OpenTelemetry metrics and tracing for
// the interceptor pipeline. Providers are no-op until the embedding
// application installs real exporters, so the pipeline can record
// unconditionally.
package instrumentation
