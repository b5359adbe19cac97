// Package tracing wraps OpenTelemetry so that request resolution and
// privileged executions can be traced without importing the SDK directly.
package tracing
