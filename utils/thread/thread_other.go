//go:build !linux

package thread

import "runtime"

func Pin(coreID int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

func SetCPUAffinity(coreID int) error { return nil }
