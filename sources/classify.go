package sources

import (
	"dnshome/common"
	"strings"
)

var privateIPv4Prefixes = []string{"10.", "172.16.", "192.168."}

var rejectedIPv6Prefixes = []string{"fe80:", "::1"}

// IsPublic decides by textual prefix whether addr may be published.
//
// IPv4 rejects 10.*, 172.16.* and 192.168.*; the rest of 172.16.0.0/12 and
// loopback are not matched, loopback interfaces are skipped before this runs.
// IPv6 rejects link-local fe80: and ::1 after dropping any %zone suffix.
// Anything else, including text that is not an address at all, is accepted.
func IsPublic(addr string, family common.Family) bool {
	switch family {
	case common.IPv4:
		return !hasAnyPrefix(addr, privateIPv4Prefixes)
	case common.IPv6:
		return !hasAnyPrefix(strings.ToLower(common.StripZone(addr)), rejectedIPv6Prefixes)
	default:
		return true
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
