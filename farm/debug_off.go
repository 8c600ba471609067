//go:build !debug

package farm

// debugLog is a no-op unless built with -tags debug.
func debugLog(string, ...interface{}) {}
