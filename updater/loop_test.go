package updater

import (
	"context"
	"dnshome/common"
	"dnshome/ddns"
	"dnshome/log"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type scriptedResolver struct {
	pairs []common.AddressPair
	calls int
	// onCall runs after each resolution, with the 1-based call number.
	onCall func(n int)
}

func (r *scriptedResolver) Resolve(context.Context) common.AddressPair {
	pair := r.pairs[min(r.calls, len(r.pairs)-1)]
	r.calls++
	if r.onCall != nil {
		r.onCall(r.calls)
	}
	return pair
}

type update struct {
	ipv4, ipv6 string
}

type recordingPublisher struct {
	results []error
	updates []update
}

func (p *recordingPublisher) Update(_ context.Context, ipv4, ipv6 string) error {
	p.updates = append(p.updates, update{ipv4, ipv6})
	if len(p.results) == 0 {
		return nil
	}
	err := p.results[0]
	p.results = p.results[1:]
	return err
}

func TestChanged(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		pair     common.AddressPair
		expected bool
	}{
		{"initial v4", State{}, common.AddressPair{IPv4: "1.1.1.1"}, true},
		{"nothing found", State{}, common.AddressPair{}, false},
		{"same", State{"1.1.1.1", "::2"}, common.AddressPair{IPv4: "1.1.1.1", IPv6: "::2"}, false},
		{"v6 newly present", State{LastIPv4: "1.1.1.1"}, common.AddressPair{IPv4: "1.1.1.1", IPv6: "2001:db8::1"}, true},
		{"v4 changed", State{"1.1.1.1", "::2"}, common.AddressPair{IPv4: "1.1.1.2", IPv6: "::2"}, true},
		{"v6 lost", State{"1.1.1.1", "::2"}, common.AddressPair{IPv4: "1.1.1.1"}, false},
		{"both lost", State{"1.1.1.1", "::2"}, common.AddressPair{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Changed(tt.state, tt.pair); got != tt.expected {
				t.Errorf("Changed(%+v, %+v) = %v, expected %v", tt.state, tt.pair, got, tt.expected)
			}
		})
	}
}

func TestCycleNewFamily(t *testing.T) {
	resolver := &scriptedResolver{pairs: []common.AddressPair{{IPv4: "1.1.1.1", IPv6: "2001:db8::1"}}}
	publisher := &recordingPublisher{}
	l := NewLoop("home.dnshome.de", time.Minute, resolver, publisher)

	state, outcome := l.Cycle(context.Background(), State{LastIPv4: "1.1.1.1"})
	if outcome != Updated {
		t.Fatalf("expected updated, got %s", outcome)
	}
	if expected := (State{"1.1.1.1", "2001:db8::1"}); state != expected {
		t.Errorf("expected %+v, got %+v", expected, state)
	}
	if len(publisher.updates) != 1 || publisher.updates[0] != (update{"1.1.1.1", "2001:db8::1"}) {
		t.Errorf("expected the full pair to be sent, got %+v", publisher.updates)
	}
}

func TestCycleNoChange(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := log.WithLogger(context.Background(), zap.New(core))

	resolver := &scriptedResolver{pairs: []common.AddressPair{{IPv4: "1.1.1.1", IPv6: "::2"}}}
	publisher := &recordingPublisher{}
	l := NewLoop("home.dnshome.de", time.Minute, resolver, publisher)

	initial := State{"1.1.1.1", "::2"}
	state, outcome := l.Cycle(ctx, initial)
	if outcome != Unchanged || state != initial {
		t.Fatalf("expected unchanged state, got %s %+v", outcome, state)
	}
	if len(publisher.updates) != 0 {
		t.Errorf("expected no update call, got %+v", publisher.updates)
	}
	if logs.FilterMessage("no IP changes detected").FilterLevelExact(zapcore.DebugLevel).Len() != 1 {
		t.Errorf("expected a debug no-change entry")
	}
}

func TestCycleKeepsKnownFamilyWhenAbsent(t *testing.T) {
	resolver := &scriptedResolver{pairs: []common.AddressPair{{IPv4: "1.1.1.2"}}}
	publisher := &recordingPublisher{}
	l := NewLoop("home.dnshome.de", time.Minute, resolver, publisher)

	state, outcome := l.Cycle(context.Background(), State{"1.1.1.1", "2001:db8::1"})
	if outcome != Updated {
		t.Fatalf("expected updated, got %s", outcome)
	}
	if expected := (State{"1.1.1.2", "2001:db8::1"}); state != expected {
		t.Errorf("expected %+v, got %+v", expected, state)
	}
	if publisher.updates[0] != (update{"1.1.1.2", ""}) {
		t.Errorf("expected absent v6 to be sent empty, got %+v", publisher.updates[0])
	}
}

func TestCycleFailureRetries(t *testing.T) {
	resolver := &scriptedResolver{pairs: []common.AddressPair{{IPv4: "1.1.1.2"}}}
	publisher := &recordingPublisher{results: []error{&ddns.RejectionError{Status: 200, Body: "badauth"}, nil}}
	l := NewLoop("home.dnshome.de", time.Minute, resolver, publisher)

	initial := State{LastIPv4: "1.1.1.1"}
	state, outcome := l.Cycle(context.Background(), initial)
	if outcome != Failed {
		t.Fatalf("expected failed, got %s", outcome)
	}
	if state != initial {
		t.Fatalf("expected state untouched on failure, got %+v", state)
	}

	state, outcome = l.Cycle(context.Background(), state)
	if outcome != Updated {
		t.Fatalf("expected retry to update, got %s", outcome)
	}
	if state.LastIPv4 != "1.1.1.2" {
		t.Errorf("expected 1.1.1.2 after retry, got %+v", state)
	}
	if len(publisher.updates) != 2 || publisher.updates[0] != publisher.updates[1] {
		t.Errorf("expected the identical update to be retried, got %+v", publisher.updates)
	}
}

func TestOnce(t *testing.T) {
	resolver := &scriptedResolver{pairs: []common.AddressPair{{IPv4: "1.1.1.1"}}}
	publisher := &recordingPublisher{results: []error{errors.New("badauth")}}
	l := NewLoop("home.dnshome.de", time.Minute, resolver, publisher)

	if err := l.Once(context.Background()); err == nil {
		t.Fatalf("expected error for failed update")
	}
	if l.State() != (State{}) {
		t.Errorf("expected empty state, got %+v", l.State())
	}

	if err := l.Once(context.Background()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if l.State().LastIPv4 != "1.1.1.1" {
		t.Errorf("expected state to be recorded, got %+v", l.State())
	}
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := &scriptedResolver{
		pairs: []common.AddressPair{
			{IPv4: "1.1.1.1"},
			{IPv4: "1.1.1.1"},
			{IPv4: "1.1.1.1", IPv6: "2001:db8::1"},
			{IPv4: "1.1.1.1", IPv6: "2001:db8::1"},
			{IPv4: "1.1.1.1", IPv6: "2001:db8::1"},
		},
		onCall: func(n int) {
			if n == 5 {
				cancel()
			}
		},
	}
	// The third cycle fails and is retried by the fourth.
	publisher := &recordingPublisher{results: []error{nil, errors.New("badauth"), nil}}
	l := NewLoop("home.dnshome.de", time.Hour, resolver, publisher)

	var waits []time.Duration
	l.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if resolver.calls != 5 {
		t.Errorf("expected 5 cycles, got %d", resolver.calls)
	}
	expected := []update{
		{"1.1.1.1", ""},
		{"1.1.1.1", "2001:db8::1"},
		{"1.1.1.1", "2001:db8::1"},
	}
	if len(publisher.updates) != len(expected) {
		t.Fatalf("expected %d updates, got %+v", len(expected), publisher.updates)
	}
	for i := range expected {
		if publisher.updates[i] != expected[i] {
			t.Errorf("update %d: expected %+v, got %+v", i, expected[i], publisher.updates[i])
		}
	}
	if l.State() != (State{"1.1.1.1", "2001:db8::1"}) {
		t.Errorf("unexpected final state %+v", l.State())
	}
	for _, d := range waits {
		if d != time.Hour {
			t.Errorf("expected to wait the configured interval, got %s", d)
		}
	}
}

func TestRunStopsDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	resolver := &scriptedResolver{pairs: []common.AddressPair{{}}}
	l := NewLoop("home.dnshome.de", time.Hour, resolver, &recordingPublisher{})

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept sleeping after cancellation")
	}
}
