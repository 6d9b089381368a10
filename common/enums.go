package common

import (
	"fmt"
	"net/netip"
)

type Family int

const (
	IPv4 Family = iota
	IPv6
)

// Families lists the address families in discovery order.
var Families = []Family{IPv4, IPv6}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("unknown<%d>", int(f))
	}
}

// Network returns the suffix pinning a dial network ("tcp" -> "tcp4") to this family.
func (f Family) Network() string {
	switch f {
	case IPv4:
		return "4"
	case IPv6:
		return "6"
	default:
		return ""
	}
}

// Contains reports whether ip belongs to the family. IPv4-mapped IPv6
// addresses count as IPv4.
func (f Family) Contains(ip netip.Addr) bool {
	switch f {
	case IPv4:
		return ip.Is4() || ip.Is4In6()
	case IPv6:
		return ip.Is6() && !ip.Is4In6()
	default:
		return false
	}
}
