// Package thread pins goroutines to CPU cores.
package thread

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to coreID. The returned function restores the previous affinity and
// unlocks the thread.
func Pin(coreID int) (func(), error) {
	runtime.LockOSThread()
	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "sched_getaffinity")
	}
	if err := SetCPUAffinity(coreID); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		// a thread we can not restore must not go back to the pool
		if unix.SchedSetaffinity(0, &prev) != nil {
			return
		}
		runtime.UnlockOSThread()
	}, nil
}

// maxCPU matches the kernel's CPU_SETSIZE as used by unix.CPUSet.
const maxCPU = 1024

// SetCPUAffinity restricts the current OS thread to coreID.
func SetCPUAffinity(coreID int) error {
	if coreID < 0 || coreID >= maxCPU {
		return errors.Errorf("cpu core %d out of range", coreID)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(coreID)
	return errors.Wrap(unix.SchedSetaffinity(0, &set), "sched_setaffinity")
}
