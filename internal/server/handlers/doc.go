// Package handlers contains HTTP handlers for the autopipe API.
//
// This package provides handlers for:
//   - Build submission, with automatic job provisioning
//   - Job listing for a credential pair
//   - Health and readiness endpoints
//
// Failures are classified errors from foundation/errors and are written with the
// HTTPErrorAdapter, so the status code follows the error category.
package handlers
