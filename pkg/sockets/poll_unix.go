//go:build unix

package sockets

// poll(2) observes socket readiness directly, so the polling shim has
// nothing to do here. See poll_windows.go for the event-object bridge the
// shim exists for.

// PreparePollSet is a no-op on platforms whose native wait primitive handles
// sockets directly.
func PreparePollSet(fds []uintptr) error {
	return nil
}

// ClearPollEvent is a no-op on platforms whose native wait primitive handles
// sockets directly.
func ClearPollEvent(eventFD, socketFD uintptr) error {
	return nil
}

// FinishPollSet is a no-op on platforms whose native wait primitive handles
// sockets directly.
func FinishPollSet(fds []uintptr) {
}
