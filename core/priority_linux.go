//go:build linux

package core

import "golang.org/x/sys/unix"

// currentThreadID returns the kernel id of the calling OS thread. The value
// is only stable while the goroutine stays locked to its thread.
func currentThreadID() int {
	return unix.Gettid()
}

// applyThreadPriority maps the abstract 0..100 priority onto the nice range
// 20..-20 of the thread tid. 0 is the lowest priority, 100 the highest;
// raising priority above the default may require elevated privileges, in
// which case the error is reported as ErrMisc and the thread keeps running
// at its previous priority.
func applyThreadPriority(tid int, prio uint) error {
	nice := -(2*int(prio))/5 + 20
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, nice); err != nil {
		return ErrMisc
	}
	return nil
}
