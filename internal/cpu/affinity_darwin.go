//go:build darwin

package cpu

import (
	"runtime"
)

// Pin locks the calling goroutine to an OS thread.
// CPU pinning is not available on macOS.
func Pin(workerID int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}
