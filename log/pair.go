package log

import (
	"dnshome/common"

	"go.uber.org/zap/zapcore"
)

type pairMarshaler common.AddressPair

func (p pairMarshaler) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddString("ipv4", p.IPv4)
	e.AddString("ipv6", p.IPv6)
	return nil
}
