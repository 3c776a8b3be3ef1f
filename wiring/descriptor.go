// Package wiring turns structural connection descriptors into typed token
// channels and composes them into the simulation wrapper that bridges talk to.
package wiring

import (
	"fmt"

	"github.com/sarchlab/bridgesim/token"
)

// A ConnectionDescriptor is the static metadata for one channel, produced by
// the external elaboration step before the driver starts. Descriptors are
// immutable. At least one of SourceRefs and SinkRefs must be present; the
// missing side marks the channel as bridge-facing in that direction.
type ConnectionDescriptor struct {
	GlobalName string
	Kind       token.ChannelKind
	SourceRefs []string
	SinkRefs   []string
}

// IsLoopback tells if both endpoints are internal to the simulated
// composition. Loopback channels are fully wired internally and never appear
// in the bridge-facing port surface.
func (d ConnectionDescriptor) IsLoopback() bool {
	return len(d.SourceRefs) > 0 && len(d.SinkRefs) > 0
}

// A WiringError reports a descriptor that cannot be wired: a malformed
// endpoint set or a port name collision. Detected at construction, before
// simulation starts.
type WiringError struct {
	Channel string
	Reason  string
}

func (e *WiringError) Error() string {
	return fmt.Sprintf("cannot wire channel %s: %s", e.Channel, e.Reason)
}

// An AdapterError reports a ready-valid descriptor whose handshake refs are
// only partially specified. A side that has leaf refs must name both its
// validity and its readiness signal.
type AdapterError struct {
	Channel string
	Reason  string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf(
		"cannot adapt ready-valid channel %s: %s", e.Channel, e.Reason)
}
