// Package monitoring carries the process-wide diagnostic logger used by the
// statistics engine and its supporting stores. Accumulation code never fails
// a cycle on a diagnostic condition; it reports through Logf and continues,
// so the logger must always be callable.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, which is how tests mute cycle diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
