//go:build !linux

package core

// On platforms without per-thread scheduling control the priority is stored
// but not applied.

func currentThreadID() int {
	return 0
}

func applyThreadPriority(tid int, prio uint) error {
	return nil
}
