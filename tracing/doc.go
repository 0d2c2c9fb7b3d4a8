// Package tracing wraps OpenTelemetry so that scheduler ticks, task
// executions and approval submissions are recorded as spans without the
// rest of the code base importing the SDK directly.
package tracing
