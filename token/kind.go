// Package token defines the channel-kind taxonomy and the queued token
// channels that replace live wires between the host and a decoupled target.
package token

import "fmt"

// A ChannelKind describes the behavior of one channel. It is a closed set of
// variants; every consumer switches over it exhaustively, so adding a kind is
// a compile-time-checked change.
type ChannelKind interface {
	isChannelKind()
}

// Pipe is a unidirectional channel that delivers each token a fixed number of
// logical steps after it was enqueued.
type Pipe struct {
	Latency int
}

// ReadyValidForward is a target-native ready-valid interface carried as two
// independently-tokenized streams. The refs name the leaf signals that hold
// the protocol state; a ref is empty when the corresponding direction is not
// part of the channel.
type ReadyValidForward struct {
	ValidSourceRef string
	ReadySinkRef   string
	ValidSinkRef   string
	ReadySourceRef string
}

// ClockControl carries the host's clock-gating decisions to the target.
type ClockControl struct{}

// TargetClock drives a group of decoupled target clocks.
type TargetClock struct {
	Count int
}

func (Pipe) isChannelKind()              {}
func (ReadyValidForward) isChannelKind() {}
func (ClockControl) isChannelKind()      {}
func (TargetClock) isChannelKind()       {}

// KindName returns a short human-readable name for a channel kind.
func KindName(k ChannelKind) string {
	switch k := k.(type) {
	case Pipe:
		return fmt.Sprintf("pipe(latency=%d)", k.Latency)
	case ReadyValidForward:
		return "ready-valid"
	case ClockControl:
		return "clock-control"
	case TargetClock:
		return fmt.Sprintf("target-clock(count=%d)", k.Count)
	default:
		panic(fmt.Sprintf("unknown channel kind %T", k))
	}
}

// ControlRefs returns the leaf refs that are protocol state rather than
// payload. The payload reconstructor strips them from the data fields.
func ControlRefs(k ChannelKind) []string {
	switch k := k.(type) {
	case Pipe, ClockControl, TargetClock:
		return nil
	case ReadyValidForward:
		var refs []string
		for _, r := range []string{
			k.ValidSourceRef, k.ReadySinkRef,
			k.ValidSinkRef, k.ReadySourceRef,
		} {
			if r != "" {
				refs = append(refs, r)
			}
		}

		return refs
	default:
		panic(fmt.Sprintf("unknown channel kind %T", k))
	}
}

// Latency returns the delivery latency of a channel kind in logical steps.
// Only Pipe channels delay tokens.
func Latency(k ChannelKind) int {
	switch k := k.(type) {
	case Pipe:
		return k.Latency
	case ReadyValidForward, ClockControl, TargetClock:
		return 0
	default:
		panic(fmt.Sprintf("unknown channel kind %T", k))
	}
}
