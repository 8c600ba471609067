//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the current OS thread to a specific CPU core.
// Must be called after runtime.LockOSThread().
//
// coreID is wrapped into [0, runtime.NumCPU()-1].
func pinToCore(coreID int) error {
	numCPU := runtime.NumCPU()
	if coreID < 0 || coreID >= numCPU {
		coreID = ((coreID % numCPU) + numCPU) % numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(coreID)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}

// Pin locks the calling goroutine to an OS thread and pins that thread to a
// CPU core derived from the worker id. Returns a cleanup function that
// should be deferred.
func Pin(workerID int) func() {
	runtime.LockOSThread()
	_ = pinToCore(workerID)

	return func() {
		runtime.UnlockOSThread()
	}
}
