package sources

import (
	"context"
	"dnshome/common"
	"dnshome/log"
	"net"
	"net/netip"
	"strings"

	"go.uber.org/zap"
)

// Link is one local network interface as seen by Interfaces.
type Link struct {
	Name  string
	Addrs func() ([]net.Addr, error)
}

// SystemLinks lists the host interfaces in the order the OS reports them.
func SystemLinks() ([]Link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(ifaces))
	for _, iface := range ifaces {
		iface := iface
		links = append(links, Link{Name: iface.Name, Addrs: iface.Addrs})
	}
	return links, nil
}

// Interfaces finds a public address bound to a local interface.
type Interfaces struct {
	list func() ([]Link, error)
}

// NewInterfaces returns a source over list, or over SystemLinks when list is nil.
func NewInterfaces(list func() ([]Link, error)) *Interfaces {
	if list == nil {
		list = SystemLinks
	}
	return &Interfaces{list: list}
}

// FirstPublic returns the first address of family accepted by IsPublic,
// scanning interfaces in order and addresses in order within each interface.
// Interfaces whose name starts with "lo" are never considered.
func (s *Interfaces) FirstPublic(ctx context.Context, family common.Family) (result string, err error) {
	ctx = log.ForFamily(ctx, family)

	links, err := s.list()
	if err != nil {
		log.S(ctx).Errorw("list interfaces failed", zap.Error(err))
		return "", &DiscoveryError{Family: family, Err: err}
	}

	for _, link := range links {
		ctx := log.SWith(ctx, "interface", link.Name)

		if strings.HasPrefix(link.Name, "lo") {
			log.S(ctx).Debugw("skip loopback interface")
			continue
		}

		addrs, err := link.Addrs()
		if err != nil {
			log.S(ctx).Errorw("get address failed", zap.Error(err))
			return "", &DiscoveryError{Family: family, Interface: link.Name, Err: err}
		}

		seen := false
		for _, addr := range addrs {
			text, ok := addrText(addr, family)
			if !ok {
				continue
			}
			seen = true

			if !IsPublic(text, family) {
				log.S(ctx).Debugw("discard IP", "ip", text, "reason", "private or link-local")
				continue
			}

			result = common.StripZone(text)
			log.S(ctx).Debugw("found public IP", log.Addr(family, result))
			return result, nil
		}

		if family == common.IPv6 && !seen {
			log.S(ctx).Errorw("no global IPv6 address found on interface")
		}
	}

	log.S(ctx).Debugw("no eligible IP found on any interface")
	return "", ErrNoPublicAddress
}

// addrText renders addr in its textual form, zone included, if it belongs
// to family.
func addrText(addr net.Addr, family common.Family) (string, bool) {
	var ip net.IP
	var zone string

	switch addr := addr.(type) {
	case *net.IPNet:
		ip = addr.IP
	case *net.IPAddr:
		ip = addr.IP
		zone = addr.Zone
	default:
		return "", false
	}

	nip, ok := netip.AddrFromSlice(ip)
	if !ok || !family.Contains(nip) {
		return "", false
	}

	nip = nip.Unmap()
	if zone != "" && nip.Is6() {
		nip = nip.WithZone(zone)
	}
	return nip.String(), true
}
