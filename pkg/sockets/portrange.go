// Package sockets provides port-range-constrained UDP socket binding,
// receive-buffer tuning and a platform polling shim for the GigE Vision
// control and stream channels. Socket handles are raw descriptors so the
// protocol engine can drive its own blocking wait loop over them.
package sockets

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

var portRangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// portRange restricts the ports used for automatic selection, typically for
// firewall traversal. Process-wide; every field is guarded by mu, which is
// also held across a full bind scan to keep concurrent callers from
// colliding on candidates.
var portRange struct {
	mu         sync.Mutex
	min, max   uint16
	lastOffset uint32
}

// InvalidRangeError reports a port range whose minimum exceeds its maximum.
type InvalidRangeError struct {
	Min, Max uint16
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid port range %d-%d: minimum exceeds maximum", e.Min, e.Max)
}

// SetPortRange restricts automatic port selection to the inclusive range
// [min, max]. min = 0 and max = 0 disables the restriction. The configured
// state is left untouched on error.
func SetPortRange(min, max uint16) error {
	if min > max {
		return &InvalidRangeError{Min: min, Max: max}
	}

	portRange.mu.Lock()
	defer portRange.mu.Unlock()

	portRange.min = min
	portRange.max = max
	// Seed the cursor at the end of the range so the next scan starts at min.
	portRange.lastOffset = uint32(max - min)
	return nil
}

// SetPortRangeFromString parses a "min-max" range and applies it via
// SetPortRange. Anything but two dash-separated non-negative port numbers is
// rejected without mutating the configured state.
func SetPortRangeFromString(s string) error {
	m := portRangePattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("malformed port range %q, want \"min-max\"", s)
	}
	min, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return fmt.Errorf("parsing port range %q: %w", s, err)
	}
	max, err := strconv.ParseUint(m[2], 10, 16)
	if err != nil {
		return fmt.Errorf("parsing port range %q: %w", s, err)
	}
	return SetPortRange(uint16(min), uint16(max))
}

// PortRange returns the configured bounds. (0, 0) means unrestricted.
func PortRange() (min, max uint16) {
	portRange.mu.Lock()
	defer portRange.mu.Unlock()
	return portRange.min, portRange.max
}
