//go:build unix

package cpu

import "golang.org/x/sys/unix"

// lockMemory page-locks b. Locking is best effort: an unprivileged process
// past RLIMIT_MEMLOCK still gets a working, unlocked registration.
func lockMemory(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return unix.Mlock(b) == nil
}

func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
