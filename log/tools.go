package log

import (
	"dnshome/common"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

func ByteField(key string, data []byte) zap.Field {
	if utf8.Valid(data) {
		return zap.ByteString(key, data)
	} else {
		return zap.Binary(key, data)
	}
}

// Addr tags an address with its family, e.g. ipv4=203.0.113.7.
func Addr(family common.Family, addr string) zap.Field {
	if family == common.IPv6 {
		return zap.String("ipv6", addr)
	}
	return zap.String("ipv4", addr)
}

// Pair tags both halves of a discovery result; absent families are logged empty.
func Pair(p common.AddressPair) zap.Field {
	return zap.Inline(pairMarshaler(p))
}

func Stage(stage string) zap.Field {
	return zap.String("stage", stage)
}

func Family(family common.Family) zap.Field {
	return zap.Stringer("family", family)
}

// Took reports the time spent since start.
func Took(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
