//go:build windows

package sockets

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// SetRecvBufferSize sets the socket receive buffer to size bytes and reads
// the value back, since winsock may silently clamp it. A confirmed size
// smaller than requested, or any syscall failure, logs a warning and returns
// false; the socket stays usable and the caller decides whether to proceed.
func SetRecvBufferSize(fd uintptr, size int) bool {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF, size); err != nil {
		log.WithError(err).WithField("bytes", size).
			Warn("setting socket receive buffer size failed")
		return false
	}

	reported, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF)
	if err != nil {
		log.WithError(err).Warn("reading back socket receive buffer size failed")
		return false
	}

	if reported < size {
		log.WithFields(log.Fields{
			"requested": size,
			"actual":    reported,
		}).Warn("socket receive buffer smaller than requested; " +
			"you might see missing packets and timeouts")
		return false
	}
	return true
}
