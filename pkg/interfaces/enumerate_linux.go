//go:build linux

package interfaces

import (
	"net"
	"net/netip"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// Enumerate returns a snapshot of all operationally-up interfaces with a
// usable unicast address, in the order reported by the kernel. Enumeration
// failures degrade to an empty list; they are never returned as errors.
func Enumerate() []*Interface {
	links, err := netlink.LinkList()
	if err != nil {
		log.WithError(err).Warn("failed to enumerate network interfaces")
		return nil
	}

	var out []*Interface
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil || attrs.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			log.WithError(err).WithField("interface", attrs.Name).
				Warn("failed to list interface addresses")
			continue
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			iface := descriptorFromAddr(attrs, &a)
			if iface != nil {
				out = append(out, iface)
			}
		}
	}
	return out
}

func descriptorFromAddr(attrs *netlink.LinkAttrs, a *netlink.Addr) *Interface {
	addr, ok := toAddr(a.IPNet.IP)
	if !ok {
		return nil
	}
	ones, _ := a.IPNet.Mask.Size()
	mask := maskAddr(addr, ones)

	var broadcast netip.Addr
	switch {
	case a.Broadcast != nil:
		broadcast, ok = toAddr(a.Broadcast)
		if !ok {
			broadcast = addr
		}
	case addr.Is4() && attrs.Flags&net.FlagBroadcast != 0:
		broadcast = broadcastFor(addr, mask)
	default:
		// No broadcast capability (loopback, point-to-point, IPv6).
		broadcast = addr
	}

	return &Interface{
		Name:      attrs.Name,
		Addr:      addr,
		Netmask:   mask,
		Broadcast: broadcast,
	}
}
