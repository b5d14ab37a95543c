package sockets

import (
	"fmt"
	"net/netip"

	log "github.com/sirupsen/logrus"
)

// BoundSocket pairs a socket handle with the concrete address and port it
// was bound to.
type BoundSocket struct {
	FD   uintptr
	Addr netip.AddrPort
}

// PortExhaustionError reports that every candidate port in the configured
// range was already in use.
type PortExhaustionError struct {
	Min, Max uint16
}

func (e *PortExhaustionError) Error() string {
	return fmt.Sprintf("no more available port in range %d-%d", e.Min, e.Max)
}

// bindSocket is the platform bind primitive; tests swap it to exercise scan
// semantics without real sockets.
var bindSocket = sysBind

// BindWithRange binds fd to addr. port = 0 requests automatic selection:
// with a range configured, candidates are scanned round-robin under the
// registry lock. The cursor advances before every attempt and is never reset
// between calls, so rapid successive binds do not immediately reuse a port.
// An in-use candidate moves the scan along; any other bind error aborts it
// and is returned with its original cause. An explicit port, or a disabled
// range, results in exactly one attempt.
func BindWithRange(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (*BoundSocket, error) {
	portRange.mu.Lock()
	defer portRange.mu.Unlock()

	if port != 0 || (portRange.min == 0 && portRange.max == 0) {
		bound, err := bindSocket(fd, addr, port, allowReuse)
		if err != nil {
			return nil, err
		}
		return &BoundSocket{FD: fd, Addr: bound}, nil
	}

	span := uint32(portRange.max-portRange.min) + 1
	for i := uint32(0); i < span; i++ {
		portRange.lastOffset = (portRange.lastOffset + 1) % span
		candidate := portRange.min + uint16(portRange.lastOffset)

		log.WithFields(log.Fields{
			"port": candidate,
			"min":  portRange.min,
			"max":  portRange.max,
		}).Debug("trying port in configured range")

		bound, err := bindSocket(fd, addr, candidate, allowReuse)
		if err == nil {
			return &BoundSocket{FD: fd, Addr: bound}, nil
		}
		if !isAddrInUse(err) {
			return nil, err
		}
	}

	err := &PortExhaustionError{Min: portRange.min, Max: portRange.max}
	log.WithFields(log.Fields{
		"min": portRange.min,
		"max": portRange.max,
	}).Warn("no more available port in configured range")
	return nil, err
}
