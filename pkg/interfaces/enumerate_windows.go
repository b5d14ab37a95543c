//go:build windows

package interfaces

import (
	"net/netip"
	"syscall"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

const (
	// Initial GetAdaptersAddresses buffer and the bounded number of grow
	// retries on ERROR_BUFFER_OVERFLOW.
	adapterBufferInitial = 15000
	adapterBufferRetries = 3
)

var (
	modiphlpapi        = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetIpAddrTable = modiphlpapi.NewProc("GetIpAddrTable")
)

// mibIPAddrRow mirrors MIB_IPADDRROW. Addr and Mask hold network byte order
// values, same as the raw sockaddr bytes.
type mibIPAddrRow struct {
	Addr      uint32
	Index     uint32
	Mask      uint32
	BcastAddr uint32
	ReasmSize uint32
	Unused1   uint16
	Wtype     uint16
}

// Enumerate returns a snapshot of all operationally-up interfaces with a
// usable IPv4 unicast address, in the order reported by the adapter API.
// Enumeration failures degrade to an empty list; they are never returned as
// errors.
func Enumerate() []*Interface {
	buf, err := adapterAddresses()
	if err != nil {
		log.WithError(err).Warn("failed to enumerate network interfaces")
		return nil
	}

	// Legacy per-address routing table, fetched at most once per snapshot.
	// Needed only for unicast entries without on-link prefix metadata.
	var addrTable []mibIPAddrRow
	var addrTableLoaded bool

	var out []*Interface
	for aa := (*windows.IpAdapterAddresses)(unsafe.Pointer(&buf[0])); aa != nil; aa = aa.Next {
		if aa.OperStatus != windows.IfOperStatusUp {
			continue
		}
		name := windows.UTF16PtrToString(aa.FriendlyName)
		for uc := aa.FirstUnicastAddress; uc != nil; uc = uc.Next {
			addr, ok := toAddr(uc.Address.IP())
			if !ok || !addr.Is4() {
				continue
			}

			var mask netip.Addr
			if uc.OnLinkPrefixLength > 0 && uc.OnLinkPrefixLength <= 32 {
				mask = maskAddr(addr, int(uc.OnLinkPrefixLength))
			} else {
				if !addrTableLoaded {
					addrTable = ipAddrTable()
					addrTableLoaded = true
				}
				mask = legacyNetmask(addr, addrTable)
			}

			out = append(out, &Interface{
				Name:      name,
				Addr:      addr,
				Netmask:   mask,
				Broadcast: broadcastFor(addr, mask),
			})
		}
	}
	return out
}

// adapterAddresses fetches the raw IP_ADAPTER_ADDRESSES list, growing the
// buffer a bounded number of times when the API reports overflow.
func adapterAddresses() ([]byte, error) {
	size := uint32(adapterBufferInitial)
	flags := uint32(windows.GAA_FLAG_SKIP_ANYCAST |
		windows.GAA_FLAG_SKIP_MULTICAST |
		windows.GAA_FLAG_SKIP_DNS_SERVER)

	var buf []byte
	var err error
	for i := 0; i < adapterBufferRetries; i++ {
		buf = make([]byte, size)
		err = windows.GetAdaptersAddresses(windows.AF_INET, flags, 0,
			(*windows.IpAdapterAddresses)(unsafe.Pointer(&buf[0])), &size)
		if err != windows.ERROR_BUFFER_OVERFLOW {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// ipAddrTable reads the legacy MIB_IPADDRTABLE, used to recover netmasks for
// unicast addresses lacking prefix metadata. Failures yield an empty table.
func ipAddrTable() []mibIPAddrRow {
	var size uint32
	r1, _, _ := procGetIpAddrTable.Call(0, uintptr(unsafe.Pointer(&size)), 0)
	if syscall.Errno(r1) != windows.ERROR_INSUFFICIENT_BUFFER || size == 0 {
		log.Warn("failed to size legacy IP address table")
		return nil
	}
	buf := make([]byte, size)
	r1, _, _ = procGetIpAddrTable.Call(uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)), 0)
	if r1 != 0 {
		log.WithField("errno", r1).Warn("failed to read legacy IP address table")
		return nil
	}
	num := int(*(*uint32)(unsafe.Pointer(&buf[0])))
	rows := make([]mibIPAddrRow, 0, num)
	rowSize := int(unsafe.Sizeof(mibIPAddrRow{}))
	for i := 0; i < num; i++ {
		off := 4 + i*rowSize
		if off+rowSize > len(buf) {
			break
		}
		rows = append(rows, *(*mibIPAddrRow)(unsafe.Pointer(&buf[off])))
	}
	return rows
}

// legacyNetmask matches the address's raw network-order bytes against the
// legacy table. With no match it falls back to a conservative 255.255.0.0;
// discovery still works, but directed broadcast may reach too few hosts.
func legacyNetmask(addr netip.Addr, rows []mibIPAddrRow) netip.Addr {
	raw := addr.As4()
	for _, row := range rows {
		if *(*[4]byte)(unsafe.Pointer(&row.Addr)) == raw {
			m := *(*[4]byte)(unsafe.Pointer(&row.Mask))
			return netip.AddrFrom4(m)
		}
	}
	log.WithField("address", addr).
		Warn("failed to obtain netmask (secondary address?), using 255.255.0.0")
	return netip.AddrFrom4([4]byte{255, 255, 0, 0})
}
