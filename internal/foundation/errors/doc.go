// Package errors provides foundational, type-safe error primitives used across autopipe.
//
// Every failure that crosses a component boundary (CI client, content generator,
// orchestrator, directory) is a ClassifiedError. The category is the failure taxonomy
// callers act on; severity and retry strategy are hints for presentation.
//
// Key features:
//   - ErrorCategory: taxonomy entry (config, auth, not_found, provisioning, remote, network, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether the caller may try again
//   - ClassifiedError: structured error with category, severity, cause and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.RemoteError("CI server rejected build trigger").
//		WithContext("job_name", job).
//		WithContext("status", resp.Status).
//		WithCause(cause).
//		Build()
package errors
