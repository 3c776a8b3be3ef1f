package wiring

import (
	"github.com/sarchlab/bridgesim/schema"
	"github.com/sarchlab/bridgesim/token"
)

// PortDirection tells which way tokens flow through a bridge-facing port,
// seen from the hub.
type PortDirection int

const (
	// PortSource marks a channel sourced by the hub and consumed by a
	// bridge. Its port is named `<globalName>_source`.
	PortSource PortDirection = iota

	// PortSink marks a channel sourced by a bridge and consumed by the hub.
	// Its port is named `<globalName>_sink`.
	PortSink
)

func (d PortDirection) String() string {
	switch d {
	case PortSource:
		return "source"
	case PortSink:
		return "sink"
	default:
		panic("unknown port direction")
	}
}

// A Port is one bridge-facing channel endpoint. A pipe-kind port exposes its
// token channel directly; a ready-valid port exposes the adapter that bundles
// the two handshake streams.
type Port struct {
	name      string
	direction PortDirection
	desc      ConnectionDescriptor
	payload   schema.PayloadType

	channel *token.PipeChannel
	adapter *ReadyValidAdapter
}

// Name returns the external port name.
func (p *Port) Name() string {
	return p.name
}

// Direction returns which way tokens flow, seen from the hub.
func (p *Port) Direction() PortDirection {
	return p.direction
}

// ChannelName returns the global name of the channel behind the port.
func (p *Port) ChannelName() string {
	return p.desc.GlobalName
}

// Kind returns the channel kind behind the port.
func (p *Port) Kind() token.ChannelKind {
	return p.desc.Kind
}

// Payload returns the reconstructed payload type of the channel.
func (p *Port) Payload() schema.PayloadType {
	return p.payload
}

// Channel returns the token channel behind a pipe-kind port. It is nil for
// ready-valid ports.
func (p *Port) Channel() *token.PipeChannel {
	return p.channel
}

// Adapter returns the adapter behind a ready-valid port. It is nil for
// pipe-kind ports.
func (p *Port) Adapter() *ReadyValidAdapter {
	return p.adapter
}

// classify decides whether a descriptor is internal loopback or
// bridge-facing, and in the latter case in which direction the synthesized
// external port faces.
func classify(d ConnectionDescriptor) (loopback bool, dir PortDirection, err error) {
	hasSource := len(d.SourceRefs) > 0
	hasSink := len(d.SinkRefs) > 0

	switch {
	case hasSource && hasSink:
		return true, 0, nil
	case hasSource:
		// The sink side is missing, so the hub sources tokens toward a
		// bridge through a synthesized `_source` port.
		return false, PortSource, nil
	case hasSink:
		return false, PortSink, nil
	default:
		return false, 0, &WiringError{
			Channel: d.GlobalName,
			Reason:  "descriptor names neither a source nor a sink",
		}
	}
}

// portSurfaceBuilder accumulates candidate bindings while the wrapper is
// under construction. Freeze turns it into the immutable PortSurface; no
// mutation happens after that.
type portSurfaceBuilder struct {
	ports   []*Port
	sources map[string]*Port
	sinks   map[string]*Port
}

func newPortSurfaceBuilder() *portSurfaceBuilder {
	return &portSurfaceBuilder{
		sources: make(map[string]*Port),
		sinks:   make(map[string]*Port),
	}
}

func (b *portSurfaceBuilder) add(p *Port) error {
	byName := b.sources
	if p.direction == PortSink {
		byName = b.sinks
	}

	if _, taken := byName[p.name]; taken {
		return &WiringError{
			Channel: p.desc.GlobalName,
			Reason:  "port name " + p.name + " already in use",
		}
	}

	byName[p.name] = p
	b.ports = append(b.ports, p)

	return nil
}

func (b *portSurfaceBuilder) freeze() *PortSurface {
	byName := make(map[string]*Port, len(b.ports))
	for _, p := range b.ports {
		byName[p.name] = p
	}

	return &PortSurface{
		ports:  b.ports,
		byName: byName,
	}
}

// A PortSurface is the frozen set of bridge-facing ports of one simulation
// wrapper. Loopback channels never appear here.
type PortSurface struct {
	ports  []*Port
	byName map[string]*Port
}

// PortByName returns the port with the given external name, or nil.
func (s *PortSurface) PortByName(name string) *Port {
	return s.byName[name]
}

// Ports returns all bridge-facing ports in descriptor order.
func (s *PortSurface) Ports() []*Port {
	return s.ports
}
