package updater

import (
	"context"
	"dnshome/common"
	"dnshome/log"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AddressResolver produces the current address pair. It never fails; a
// family it could not find is left empty.
type AddressResolver interface {
	Resolve(ctx context.Context) common.AddressPair
}

// Publisher pushes a pair to the DDNS provider. nil means the provider
// confirmed the update.
type Publisher interface {
	Update(ctx context.Context, ipv4, ipv6 string) error
}

// State is what the provider was last told.
type State struct {
	LastIPv4 string
	LastIPv6 string
}

// Changed reports whether pair holds an address the provider has not seen.
// Absent families never count as a change.
func Changed(state State, pair common.AddressPair) bool {
	return (pair.IPv4 != "" && pair.IPv4 != state.LastIPv4) ||
		(pair.IPv6 != "" && pair.IPv6 != state.LastIPv6)
}

// Apply records a successfully published pair. A family absent from pair
// keeps its previous value.
func (s State) Apply(pair common.AddressPair) State {
	if pair.IPv4 != "" {
		s.LastIPv4 = pair.IPv4
	}
	if pair.IPv6 != "" {
		s.LastIPv6 = pair.IPv6
	}
	return s
}

type Outcome int

const (
	Unchanged Outcome = iota
	Updated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown<%d>", int(o))
	}
}

// Loop drives resolve, compare and publish cycles.
type Loop struct {
	domain    string
	interval  time.Duration
	resolver  AddressResolver
	publisher Publisher

	state State
	after func(time.Duration) <-chan time.Time
}

func NewLoop(domain string, interval time.Duration, resolver AddressResolver, publisher Publisher) *Loop {
	return &Loop{
		domain:    domain,
		interval:  interval,
		resolver:  resolver,
		publisher: publisher,
		after:     time.After,
	}
}

// State returns what the loop last published.
func (l *Loop) State() State {
	return l.state
}

// Cycle runs one iteration from state and returns the state to carry into
// the next one. On failure state is returned untouched, so the same change is
// detected and retried next time.
func (l *Loop) Cycle(ctx context.Context, state State) (State, Outcome) {
	pair := l.resolver.Resolve(ctx)

	if !Changed(state, pair) {
		log.S(ctx).Debugw("no IP changes detected", log.Pair(pair))
		return state, Unchanged
	}

	log.S(ctx).Infow("IP changed, updating", log.Pair(pair),
		"old_ipv4", state.LastIPv4, "old_ipv6", state.LastIPv6)

	if err := l.publisher.Update(ctx, pair.IPv4, pair.IPv6); err != nil {
		log.S(ctx).Warnw("update failed, retry next cycle", zap.Error(err))
		return state, Failed
	}

	return state.Apply(pair), Updated
}

// Once runs a single cycle and reports a failed update as an error.
func (l *Loop) Once(ctx context.Context) error {
	ctx = log.With(ctx, log.Stage("update"), zap.String("domain", l.domain))

	var outcome Outcome
	l.state, outcome = l.Cycle(ctx, l.state)
	if outcome == Failed {
		return fmt.Errorf("update of %s failed", l.domain)
	}
	return nil
}

// Run cycles until ctx is cancelled, waiting the interval between cycles.
// Errors inside a cycle never stop it.
func (l *Loop) Run(ctx context.Context) error {
	ctx = log.With(ctx, log.Stage("update"), zap.String("domain", l.domain))

	log.S(ctx).Infow("starting updater", "interval", l.interval, "interval_hours", l.interval.Hours())

	for {
		var outcome Outcome
		l.state, outcome = l.Cycle(ctx, l.state)
		log.S(ctx).Debugw("cycle finished", "outcome", outcome, "next_in", l.interval)

		if err := l.wait(ctx); err != nil {
			log.S(ctx).Infow("updater stopped", zap.Error(err))
			return nil
		}
	}
}

func (l *Loop) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.after(l.interval):
		return nil
	}
}
