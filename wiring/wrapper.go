package wiring

import (
	"github.com/sarchlab/bridgesim/naming"
	"github.com/sarchlab/bridgesim/schema"
	"github.com/sarchlab/bridgesim/token"
)

// A Wrapper composes all the channels of one simulated design into a single
// addressable structure. Bridge-facing channels are reachable through the
// port surface; loopback channels are wired internally and hidden. A wrapper
// is immutable once built; its channel instances live for the whole run.
type Wrapper struct {
	naming.NamedBase

	surface    *PortSurface
	channels   []*channelInstance
	chanByName map[string]*channelInstance
}

type channelInstance struct {
	desc     ConnectionDescriptor
	payload  schema.PayloadType
	loopback bool

	channel *token.PipeChannel
	adapter *ReadyValidAdapter
}

// A WrapperBuilder can build simulation wrappers.
type WrapperBuilder struct {
	lookup          schema.Lookup
	descriptors     []ConnectionDescriptor
	defaultCapacity int
}

// MakeWrapperBuilder creates a builder with default parameters.
func MakeWrapperBuilder() WrapperBuilder {
	return WrapperBuilder{defaultCapacity: 16}
}

// WithLookup sets the external leaf-type lookup.
func (b WrapperBuilder) WithLookup(lookup schema.Lookup) WrapperBuilder {
	b.lookup = lookup
	return b
}

// WithDescriptors sets the connection descriptors to wire.
func (b WrapperBuilder) WithDescriptors(
	ds ...ConnectionDescriptor,
) WrapperBuilder {
	b.descriptors = append(b.descriptors, ds...)
	return b
}

// WithDefaultCapacity sets the queue bound used for every channel.
func (b WrapperBuilder) WithDefaultCapacity(capacity int) WrapperBuilder {
	b.defaultCapacity = capacity
	return b
}

// Build wires every descriptor into a channel instance and freezes the
// bridge-facing port surface. Pipe and clock channels are built first, then
// ready-valid channels, each wrapping one adapter. Any schema, wiring, or
// adapter inconsistency fails construction before the simulation starts.
func (b WrapperBuilder) Build(name string) (*Wrapper, error) {
	naming.MustBeValid(name)

	if err := b.namesMustBeUnique(); err != nil {
		return nil, err
	}

	w := &Wrapper{
		NamedBase:  naming.MakeNamedBase(name),
		chanByName: make(map[string]*channelInstance),
	}

	surface := newPortSurfaceBuilder()

	// Pipe, clock-control, and target-clock channels carry no handshake
	// state and are built first.
	for _, d := range b.descriptors {
		if _, isRV := d.Kind.(token.ReadyValidForward); isRV {
			continue
		}

		if err := b.buildChannel(w, surface, d); err != nil {
			return nil, err
		}
	}

	for _, d := range b.descriptors {
		if _, isRV := d.Kind.(token.ReadyValidForward); !isRV {
			continue
		}

		if err := b.buildChannel(w, surface, d); err != nil {
			return nil, err
		}
	}

	w.surface = surface.freeze()

	return w, nil
}

func (b WrapperBuilder) namesMustBeUnique() error {
	seen := make(map[string]bool, len(b.descriptors))
	for _, d := range b.descriptors {
		if seen[d.GlobalName] {
			return &WiringError{
				Channel: d.GlobalName,
				Reason:  "channel name is not unique",
			}
		}

		seen[d.GlobalName] = true
	}

	return nil
}

func (b WrapperBuilder) buildChannel(
	w *Wrapper,
	surface *portSurfaceBuilder,
	d ConnectionDescriptor,
) error {
	loopback, dir, err := classify(d)
	if err != nil {
		return err
	}

	payload, err := b.payloadOf(d)
	if err != nil {
		return err
	}

	inst := &channelInstance{
		desc:     d,
		payload:  payload,
		loopback: loopback,
	}

	switch kind := d.Kind.(type) {
	case token.ReadyValidForward:
		if err := validateReadyValid(d, kind); err != nil {
			return err
		}

		inst.adapter = newReadyValidAdapter(d.GlobalName, b.defaultCapacity)
	case token.Pipe, token.ClockControl, token.TargetClock:
		inst.channel = token.MakePipeChannelBuilder().
			WithLatency(token.Latency(d.Kind)).
			WithCapacity(b.defaultCapacity).
			Build(d.GlobalName)
	default:
		panic("unknown channel kind")
	}

	w.channels = append(w.channels, inst)
	w.chanByName[d.GlobalName] = inst

	if loopback {
		return nil
	}

	port := &Port{
		name:      d.GlobalName + "_" + dir.String(),
		direction: dir,
		desc:      d,
		payload:   payload,
		channel:   inst.channel,
		adapter:   inst.adapter,
	}

	return surface.add(port)
}

func (b WrapperBuilder) payloadOf(
	d ConnectionDescriptor,
) (schema.PayloadType, error) {
	refs := d.SourceRefs
	if len(refs) == 0 {
		refs = d.SinkRefs
	}

	if b.lookup == nil {
		return schema.PayloadType{}, nil
	}

	return schema.Payload(refs, token.ControlRefs(d.Kind), b.lookup)
}

// PortByName returns the bridge-facing port with the given external name, or
// nil. Loopback channels are not addressable here.
func (w *Wrapper) PortByName(name string) *Port {
	return w.surface.PortByName(name)
}

// Ports returns the bridge-facing port surface in descriptor order.
func (w *Wrapper) Ports() []*Port {
	return w.surface.Ports()
}

// AdvanceAll moves every channel of the wrapper forward by n logical steps.
func (w *Wrapper) AdvanceAll(n uint64) {
	for _, inst := range w.channels {
		switch {
		case inst.adapter != nil:
			inst.adapter.advance(n)
		default:
			inst.channel.Advance(n)
		}
	}
}

// A ChannelStatus is a point-in-time view of one channel, used by the status
// server and by tests.
type ChannelStatus struct {
	Channel  string
	Kind     string
	Loopback bool
	Queued   int
	Capacity int
}

// Channels reports the status of every channel, loopback included.
func (w *Wrapper) Channels() []ChannelStatus {
	statuses := make([]ChannelStatus, 0, len(w.channels))

	for _, inst := range w.channels {
		s := ChannelStatus{
			Channel:  inst.desc.GlobalName,
			Kind:     token.KindName(inst.desc.Kind),
			Loopback: inst.loopback,
		}

		switch {
		case inst.adapter != nil:
			s.Queued = inst.adapter.fwd.Len() + inst.adapter.rev.Len()
			s.Capacity = inst.adapter.fwd.Capacity() +
				inst.adapter.rev.Capacity()
		default:
			s.Queued = inst.channel.Len()
			s.Capacity = inst.channel.Capacity()
		}

		statuses = append(statuses, s)
	}

	return statuses
}

// loopbackChannel exposes an internal channel to in-package tests.
func (w *Wrapper) loopbackChannel(name string) *channelInstance {
	return w.chanByName[name]
}
