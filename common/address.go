package common

// AddressPair is the result of one discovery round. An empty field means no
// address was found for that family.
type AddressPair struct {
	IPv4 string
	IPv6 string
}

func (p *AddressPair) Set(f Family, addr string) {
	if f == IPv6 {
		p.IPv6 = addr
	} else {
		p.IPv4 = addr
	}
}

// Complete reports whether both families are present.
func (p AddressPair) Complete() bool {
	return p.IPv4 != "" && p.IPv6 != ""
}

// Fill sets every family missing from p to the value found in other.
func (p AddressPair) Fill(other AddressPair) AddressPair {
	if p.IPv4 == "" {
		p.IPv4 = other.IPv4
	}
	if p.IPv6 == "" {
		p.IPv6 = other.IPv6
	}
	return p
}
