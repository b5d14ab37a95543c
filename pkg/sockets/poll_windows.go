//go:build windows

package sockets

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// WaitForMultipleObjectsEx cannot observe winsock socket descriptors, so a
// poll-style wait loop over sockets never wakes up on Windows. The shim
// bridges the gap: each socket gets a WSA event object registered for read
// readiness, the wait runs over the event handles, and a fired event is
// drained with WSAEnumNetworkEvents so it can signal again.

const fdRead = 0x01 // FD_READ

var (
	modws2_32                = windows.NewLazySystemDLL("ws2_32.dll")
	procWSACreateEvent       = modws2_32.NewProc("WSACreateEvent")
	procWSAEventSelect       = modws2_32.NewProc("WSAEventSelect")
	procWSAEnumNetworkEvents = modws2_32.NewProc("WSAEnumNetworkEvents")
	procWSACloseEvent        = modws2_32.NewProc("WSACloseEvent")
)

// wsaNetworkEvents mirrors WSANETWORKEVENTS.
type wsaNetworkEvents struct {
	NetworkEvents int32
	ErrorCode     [10]int32
}

// PreparePollSet replaces each socket handle in fds, in place, with a WSA
// event handle registered for read readiness. On error, event handles already
// installed in fds must still be released with FinishPollSet.
func PreparePollSet(fds []uintptr) error {
	initNetworking()
	for i, sock := range fds {
		ev, _, callErr := procWSACreateEvent.Call()
		if ev == 0 {
			return fmt.Errorf("WSACreateEvent: %w", callErr)
		}
		r1, _, callErr := procWSAEventSelect.Call(sock, ev, fdRead)
		if r1 != 0 {
			procWSACloseEvent.Call(ev)
			return fmt.Errorf("WSAEventSelect: %w", callErr)
		}
		fds[i] = ev
	}
	return nil
}

// ClearPollEvent drains a fired event so it is not reported again on the
// next wait cycle. eventFD is the handle PreparePollSet installed; socketFD
// is the socket it was created for.
func ClearPollEvent(eventFD, socketFD uintptr) error {
	var events wsaNetworkEvents
	r1, _, callErr := procWSAEnumNetworkEvents.Call(socketFD, eventFD,
		uintptr(unsafe.Pointer(&events)))
	if r1 != 0 {
		return fmt.Errorf("WSAEnumNetworkEvents: %w", callErr)
	}
	return nil
}

// FinishPollSet releases the event handles created by PreparePollSet.
func FinishPollSet(fds []uintptr) {
	for _, ev := range fds {
		if ev == 0 {
			continue
		}
		if r1, _, callErr := procWSACloseEvent.Call(ev); r1 == 0 {
			log.WithError(callErr).Warn("WSACloseEvent failed")
		}
	}
}
