package sockets

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

var testAddr = netip.MustParseAddr("127.0.0.1")

// stubBind swaps the platform bind primitive for the duration of a test.
func stubBind(t *testing.T, fn func(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (netip.AddrPort, error)) {
	t.Helper()
	orig := bindSocket
	bindSocket = fn
	t.Cleanup(func() { bindSocket = orig })
}

// recordingBind succeeds on every port not listed in busy, recording the
// attempted ports.
func recordingBind(attempts *[]uint16, busy map[uint16]error) func(uintptr, netip.Addr, uint16, bool) (netip.AddrPort, error) {
	return func(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (netip.AddrPort, error) {
		*attempts = append(*attempts, port)
		if err, ok := busy[port]; ok {
			return netip.AddrPort{}, err
		}
		return netip.AddrPortFrom(addr, port), nil
	}
}

func TestBindWithRangeCoversRangeBeforeRepeat(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(9000, 9002))

	var attempts []uint16
	stubBind(t, recordingBind(&attempts, nil))

	var got []uint16
	for i := 0; i < 3; i++ {
		bound, err := BindWithRange(1, testAddr, 0, false)
		require.NoError(t, err)
		port := bound.Addr.Port()
		require.GreaterOrEqual(t, port, uint16(9000))
		require.LessOrEqual(t, port, uint16(9002))
		got = append(got, port)
	}

	// Three sequential automatic binds cover the whole range, in order,
	// before any repeat.
	require.Equal(t, []uint16{9000, 9001, 9002}, got)

	// The cursor is cumulative across calls: a fourth bind wraps around.
	bound, err := BindWithRange(1, testAddr, 0, false)
	require.NoError(t, err)
	require.Equal(t, uint16(9000), bound.Addr.Port())
}

func TestBindWithRangeSkipsBusyPorts(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(9000, 9002))

	var attempts []uint16
	stubBind(t, recordingBind(&attempts, map[uint16]error{
		9000: fmt.Errorf("binding: %w", errAddrInUse),
	}))

	bound, err := BindWithRange(1, testAddr, 0, false)
	require.NoError(t, err)
	require.Equal(t, uint16(9001), bound.Addr.Port())
	require.Equal(t, []uint16{9000, 9001}, attempts)
}

func TestBindWithRangeExhaustion(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(9000, 9001))

	inUse := fmt.Errorf("binding: %w", errAddrInUse)
	var attempts []uint16
	stubBind(t, recordingBind(&attempts, map[uint16]error{9000: inUse, 9001: inUse}))

	bound, err := BindWithRange(1, testAddr, 0, false)
	require.Nil(t, bound)

	var exhausted *PortExhaustionError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, uint16(9000), exhausted.Min)
	require.Equal(t, uint16(9001), exhausted.Max)
	require.Contains(t, err.Error(), "9000-9001")

	// Both candidates were tried exactly once.
	require.Len(t, attempts, 2)
	require.ElementsMatch(t, []uint16{9000, 9001}, attempts)
}

func TestBindWithRangeAbortsOnUnexpectedError(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(9000, 9002))

	fatal := errors.New("operation not permitted")
	var attempts []uint16
	stubBind(t, func(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (netip.AddrPort, error) {
		attempts = append(attempts, port)
		return netip.AddrPort{}, fatal
	})

	bound, err := BindWithRange(1, testAddr, 0, false)
	require.Nil(t, bound)
	// The error is not retried as a port problem; it propagates unchanged.
	require.ErrorIs(t, err, fatal)
	require.Len(t, attempts, 1)
}

func TestBindWithRangeExplicitPortBypassesRange(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(9000, 9002))

	var attempts []uint16
	stubBind(t, recordingBind(&attempts, nil))

	bound, err := BindWithRange(1, testAddr, 12345, false)
	require.NoError(t, err)
	require.Equal(t, uint16(12345), bound.Addr.Port())
	require.Equal(t, []uint16{12345}, attempts)
}

func TestBindWithRangeDisabledRangeIsUnrestricted(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(0, 0))

	var attempts []uint16
	stubBind(t, recordingBind(&attempts, nil))

	// An automatic-port request with the range disabled is a single
	// OS-default bind attempt.
	_, err := BindWithRange(1, testAddr, 0, false)
	require.NoError(t, err)
	require.Equal(t, []uint16{0}, attempts)
}

func TestBindWithRangeRealSockets(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(47650, 47652))

	newSocket := func() uintptr {
		fd, err := NewUDPSocket(false)
		require.NoError(t, err)
		t.Cleanup(func() { Close(fd) })
		return fd
	}

	seen := map[uint16]bool{}
	for i := 0; i < 3; i++ {
		bound, err := BindWithRange(newSocket(), testAddr, 0, false)
		require.NoError(t, err)
		port := bound.Addr.Port()
		require.GreaterOrEqual(t, port, uint16(47650))
		require.LessOrEqual(t, port, uint16(47652))
		require.False(t, seen[port], "port %d bound twice", port)
		seen[port] = true
	}

	// Every port in the range is now occupied.
	_, err := BindWithRange(newSocket(), testAddr, 0, false)
	var exhausted *PortExhaustionError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, uint16(47650), exhausted.Min)
	require.Equal(t, uint16(47652), exhausted.Max)
}

func TestBindRealSocketExplicitPort(t *testing.T) {
	stashPortRange(t)
	require.NoError(t, SetPortRange(0, 0))

	fd, err := NewUDPSocket(false)
	require.NoError(t, err)
	t.Cleanup(func() { Close(fd) })

	// Automatic bind with the range disabled: the OS picks any port.
	bound, err := BindWithRange(fd, testAddr, 0, false)
	require.NoError(t, err)
	require.NotZero(t, bound.Addr.Port())
	require.Equal(t, testAddr, bound.Addr.Addr())
}
