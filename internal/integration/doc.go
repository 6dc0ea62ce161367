// Package integration provides cross-package integration tests for tasktalk.
// These tests drive the assistant through the real oracle, SQLite and bbolt
// layers with a scripted model provider.
//
// Build tag: integration
// Run with: go test -tags integration ./internal/integration/...
package integration
