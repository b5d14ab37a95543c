//go:build unix

package sockets

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// SetRecvBufferSize sets the socket receive buffer to size bytes and reads
// the value back, since the kernel may silently clamp it. A confirmed size
// smaller than requested, or any syscall failure, logs a warning and returns
// false; the socket stays usable and the caller decides whether to proceed.
func SetRecvBufferSize(fd uintptr, size int) bool {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size); err != nil {
		log.WithError(err).WithField("bytes", size).
			Warn("setting socket receive buffer size failed")
		return false
	}

	reported, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		log.WithError(err).Warn("reading back socket receive buffer size failed")
		return false
	}

	if reported < size {
		log.WithFields(log.Fields{
			"requested": size,
			"actual":    reported,
		}).Warn("socket receive buffer smaller than requested; " +
			"you might see missing packets and timeouts; " +
			"most likely net.core.rmem_max is too low, see socket(7)")
		return false
	}
	return true
}
