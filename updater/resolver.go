package updater

import (
	"context"
	"dnshome/common"
	"dnshome/log"
	"dnshome/sources"
	"errors"

	"go.uber.org/zap"
)

// LocalSource finds an address on the host itself.
type LocalSource interface {
	FirstPublic(ctx context.Context, family common.Family) (string, error)
}

// RemoteSource asks the outside world for both addresses at once. The
// returned pair holds whatever succeeded even when err is non-nil.
type RemoteSource interface {
	Query(ctx context.Context) (common.AddressPair, error)
}

// Resolver combines local discovery with a remote fallback.
type Resolver struct {
	local  LocalSource
	remote RemoteSource
}

func NewResolver(local LocalSource, remote RemoteSource) *Resolver {
	return &Resolver{local: local, remote: remote}
}

// Resolve returns the best known pair. Local results are tried first for
// each family; the remote source is queried once only when a family is still
// missing, and only fills the gaps.
func (r *Resolver) Resolve(ctx context.Context) common.AddressPair {
	ctx = log.SWith(ctx, log.Stage("resolve"))

	var pair common.AddressPair
	for _, family := range common.Families {
		addr, err := r.local.FirstPublic(ctx, family)
		if err != nil {
			if !errors.Is(err, sources.ErrNoPublicAddress) {
				log.S(ctx).Warnw("local discovery failed", log.Family(family), zap.Error(err))
			}
			continue
		}
		pair.Set(family, addr)
	}

	if pair.Complete() {
		log.S(ctx).Infow("resolved ip", log.Pair(pair), "source", "interface")
		return pair
	}

	if r.remote == nil {
		log.S(ctx).Debugw("no remote source, keep partial result", log.Pair(pair))
		return pair
	}

	remote, err := r.remote.Query(ctx)
	if err != nil {
		log.S(ctx).Warnw("remote lookup incomplete", zap.Error(err))
	}

	pair = pair.Fill(remote)
	if pair.IPv4 == "" && pair.IPv6 == "" {
		log.S(ctx).Errorw("all sources failed, unable to get ip")
	} else {
		log.S(ctx).Infow("resolved ip", log.Pair(pair), "source", "interface+echo")
	}
	return pair
}
