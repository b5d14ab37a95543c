//go:build unix

package sockets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollShimIsNoOpOnUnix(t *testing.T) {
	fd, err := NewUDPSocket(false)
	require.NoError(t, err)
	t.Cleanup(func() { Close(fd) })

	fds := []uintptr{fd}
	require.NoError(t, PreparePollSet(fds))
	// Descriptors are left untouched; poll(2) observes sockets directly.
	require.Equal(t, []uintptr{fd}, fds)
	require.NoError(t, ClearPollEvent(fds[0], fd))
	FinishPollSet(fds)
}
