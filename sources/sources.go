package sources

import (
	"dnshome/common"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPublicAddress is returned when discovery finished without error but no
// address passed IsPublic.
var ErrNoPublicAddress = errors.New("no public address found")

// DiscoveryError reports that local interfaces could not be enumerated.
type DiscoveryError struct {
	Family    common.Family
	Interface string
	Err       error
}

func (e *DiscoveryError) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("discover %s: list interfaces: %v", e.Family, e.Err)
	}
	return fmt.Sprintf("discover %s: interface %s: %v", e.Family, e.Interface, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// RemoteLookupError collects the per-family failures of one echo query.
// A nil field means that family succeeded.
type RemoteLookupError struct {
	IPv4 error
	IPv6 error
}

func (e *RemoteLookupError) Error() string {
	var parts []string
	if e.IPv4 != nil {
		parts = append(parts, "IPv4: "+e.IPv4.Error())
	}
	if e.IPv6 != nil {
		parts = append(parts, "IPv6: "+e.IPv6.Error())
	}
	return "remote lookup failed: " + strings.Join(parts, "; ")
}

func (e *RemoteLookupError) Unwrap() []error {
	var errs []error
	if e.IPv4 != nil {
		errs = append(errs, e.IPv4)
	}
	if e.IPv6 != nil {
		errs = append(errs, e.IPv6)
	}
	return errs
}

// Failed reports whether the lookup for family failed.
func (e *RemoteLookupError) Failed(family common.Family) bool {
	if family == common.IPv6 {
		return e.IPv6 != nil
	}
	return e.IPv4 != nil
}
