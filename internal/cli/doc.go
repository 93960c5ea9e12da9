// Package cli implements the zyn command line: one-shot cobra commands over
// a local store and an interactive shell that dispatches to the same
// operations.
//
// Usage:
//
//	zyn add "yesterday 9pm"
//	zyn list --format json
//	zyn stats --window 14
//	zyn sync set --owner alice --repo logs
//	zyn shell
package cli
