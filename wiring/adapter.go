package wiring

import (
	"github.com/sarchlab/bridgesim/token"
)

// ForwardState is the target-visible content of one forward stream token: the
// target's valid bit and the payload bits for that step.
type ForwardState struct {
	TargetValid bool
	Bits        []uint64
}

// ReverseState is the target-visible content of one reverse stream token.
type ReverseState struct {
	TargetReady bool
}

// A ReadyValidAdapter presents a target-accurate ready-valid handshake atop
// two independently-tokenized streams. Host-level token presence and
// target-level protocol state are orthogonal: a token existing for a step
// says nothing about whether the target considered the transaction valid,
// which is the TargetValid bit inside the token. The adapter only bundles and
// unbundles tokens with no loss or reordering; whether a logical transfer
// occurred is evaluated by the consumer of the target-visible bits.
type ReadyValidAdapter struct {
	name string
	fwd  *token.PipeChannel
	rev  *token.PipeChannel
}

func newReadyValidAdapter(name string, capacity int) *ReadyValidAdapter {
	return &ReadyValidAdapter{
		name: name,
		fwd: token.MakePipeChannelBuilder().
			WithCapacity(capacity).
			Build(name + ".fwd"),
		rev: token.MakePipeChannelBuilder().
			WithCapacity(capacity).
			Build(name + ".rev"),
	}
}

// validateReadyValid checks that every side of the descriptor that has leaf
// refs also names its handshake signals. A partially specified handshake is
// invalid, not optional.
func validateReadyValid(
	d ConnectionDescriptor,
	kind token.ReadyValidForward,
) error {
	if len(d.SourceRefs) > 0 {
		if kind.ValidSourceRef == "" {
			return &AdapterError{
				Channel: d.GlobalName,
				Reason:  "source side present but no valid ref given",
			}
		}

		if kind.ReadySinkRef == "" {
			return &AdapterError{
				Channel: d.GlobalName,
				Reason:  "source side present but no ready ref given",
			}
		}
	}

	if len(d.SinkRefs) > 0 {
		if kind.ValidSinkRef == "" {
			return &AdapterError{
				Channel: d.GlobalName,
				Reason:  "sink side present but no valid ref given",
			}
		}

		if kind.ReadySourceRef == "" {
			return &AdapterError{
				Channel: d.GlobalName,
				Reason:  "sink side present but no ready ref given",
			}
		}
	}

	return nil
}

// Name returns the name of the adapter.
func (a *ReadyValidAdapter) Name() string {
	return a.name
}

// EnqueueForward bundles one step's target-valid bit and payload into a
// forward token. The token's host-level presence is its position in the
// stream; TargetValid may well be false.
func (a *ReadyValidAdapter) EnqueueForward(
	targetValid bool,
	bits ...uint64,
) error {
	return a.fwd.Enqueue(token.Token{Valid: targetValid, Bits: bits})
}

// CanEnqueueForward tells if the forward stream has room for one more token.
func (a *ReadyValidAdapter) CanEnqueueForward() bool {
	return a.fwd.CanEnqueue()
}

// DequeueForward unbundles the next forward token, if one is available for
// the current step.
func (a *ReadyValidAdapter) DequeueForward() (ForwardState, bool) {
	t, ok := a.fwd.Dequeue()
	if !ok {
		return ForwardState{}, false
	}

	return ForwardState{TargetValid: t.Valid, Bits: t.Bits}, true
}

// PeekForward returns the next forward token without consuming it.
func (a *ReadyValidAdapter) PeekForward() (ForwardState, bool) {
	t, ok := a.fwd.Peek()
	if !ok {
		return ForwardState{}, false
	}

	return ForwardState{TargetValid: t.Valid, Bits: t.Bits}, true
}

// EnqueueReverse bundles one step's ready decision into a reverse token.
func (a *ReadyValidAdapter) EnqueueReverse(targetReady bool) error {
	return a.rev.Enqueue(token.Token{Valid: targetReady})
}

// CanEnqueueReverse tells if the reverse stream has room for one more token.
func (a *ReadyValidAdapter) CanEnqueueReverse() bool {
	return a.rev.CanEnqueue()
}

// DequeueReverse unbundles the next reverse token, if one is available.
func (a *ReadyValidAdapter) DequeueReverse() (ReverseState, bool) {
	t, ok := a.rev.Dequeue()
	if !ok {
		return ReverseState{}, false
	}

	return ReverseState{TargetReady: t.Valid}, true
}

// Forward returns the forward token stream.
func (a *ReadyValidAdapter) Forward() *token.PipeChannel {
	return a.fwd
}

// Reverse returns the reverse token stream.
func (a *ReadyValidAdapter) Reverse() *token.PipeChannel {
	return a.rev
}

func (a *ReadyValidAdapter) advance(n uint64) {
	a.fwd.Advance(n)
	a.rev.Advance(n)
}

// Handshake evaluates whether the correspondingly-timed forward and reverse
// tokens of one step describe a completed transfer. This is the consumer-side
// judgment the adapter itself never makes: both target bits must be true, and
// host-level presence alone never completes a handshake.
func Handshake(fwd ForwardState, rev ReverseState) bool {
	return fwd.TargetValid && rev.TargetReady
}
