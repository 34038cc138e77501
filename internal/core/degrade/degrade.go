// Package degrade names the ways a failing call site is allowed to degrade.
//
// Nothing in the notification path may crash or block the host. Instead of
// swallowing errors uniformly, every call site reports the failure together
// with the policy it applied, so the degradation is observable in logs and
// assertable in tests.
package degrade

import "github.com/rs/zerolog"

// Policy identifies how a call site recovers from a failure.
type Policy string

const (
	// RetryNextCycle abandons the current unit of work; the next natural
	// trigger (poll tick, next subscribe call) tries again.
	RetryNextCycle Policy = "retry-next-cycle"
	// TerminalNoOp ends the operation silently. No retry happens without a
	// new explicit caller action (permission denied, platform unsupported).
	TerminalNoOp Policy = "terminal-no-op"
	// FallbackValue replaces the failed result with a synthesized value.
	FallbackValue Policy = "fallback-value"
	// BestEffort ignores the failure; the effect was an enhancement only.
	BestEffort Policy = "best-effort"
)

// Outcome describes a single degraded call.
type Outcome struct {
	Site   string
	Policy Policy
	Err    error
}

// Sink receives degraded outcomes.
type Sink func(Outcome)

// Reporter logs degraded outcomes and forwards them to an optional sink.
// The zero value is not usable; a nil *Reporter discards everything.
type Reporter struct {
	log  zerolog.Logger
	sink Sink
}

// NewReporter creates a reporter. sink may be nil.
func NewReporter(log zerolog.Logger, sink Sink) *Reporter {
	return &Reporter{log: log, sink: sink}
}

// Handle records that site failed with err and recovered using p.
// A nil err is ignored so callers can pass results through unconditionally.
func (r *Reporter) Handle(site string, p Policy, err error) {
	if r == nil || err == nil {
		return
	}

	ev := r.log.Debug()
	if p == RetryNextCycle || p == FallbackValue {
		ev = r.log.Warn()
	}
	ev.Err(err).Str("site", site).Str("policy", string(p)).Msg("degraded")

	if r.sink != nil {
		r.sink(Outcome{Site: site, Policy: p, Err: err})
	}
}
