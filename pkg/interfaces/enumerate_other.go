//go:build !linux && !windows

package interfaces

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// Enumerate returns a snapshot of all operationally-up interfaces with a
// usable unicast address, in the order reported by the platform. Enumeration
// failures degrade to an empty list; they are never returned as errors.
func Enumerate() []*Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.WithError(err).Warn("failed to enumerate network interfaces")
		return nil
	}

	var out []*Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			log.WithError(err).WithField("interface", iface.Name).
				Warn("failed to list interface addresses")
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			addr, ok := toAddr(ipnet.IP)
			if !ok {
				continue
			}
			ones, _ := ipnet.Mask.Size()
			mask := maskAddr(addr, ones)

			broadcast := addr
			if addr.Is4() && iface.Flags&net.FlagBroadcast != 0 {
				broadcast = broadcastFor(addr, mask)
			}

			out = append(out, &Interface{
				Name:      iface.Name,
				Addr:      addr,
				Netmask:   mask,
				Broadcast: broadcast,
			})
		}
	}
	return out
}
