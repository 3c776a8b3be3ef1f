package wiring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bridgesim/schema"
	"github.com/sarchlab/bridgesim/token"
)

func testLookup() schema.MapLookup {
	return schema.MapLookup{
		"uart_out": schema.RecordType{Fields: []schema.Field{
			{Name: "valid", Type: schema.IntType{WidthBits: 1}},
			{Name: "ready", Type: schema.IntType{WidthBits: 1}},
			{Name: "bits", Type: schema.IntType{WidthBits: 8}},
		}},
		"uart_in":    schema.IntType{WidthBits: 8},
		"clk_enable": schema.IntType{WidthBits: 1},
		"trace_loop": schema.IntType{WidthBits: 64},
	}
}

var _ = Describe("WrapperBuilder", func() {
	It("should hide loopback channels from the port surface", func() {
		w, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(
				ConnectionDescriptor{
					GlobalName: "trace_loop",
					Kind:       token.Pipe{Latency: 1},
					SourceRefs: []string{"trace_loop"},
					SinkRefs:   []string{"trace_loop"},
				},
				ConnectionDescriptor{
					GlobalName: "uart_in",
					Kind:       token.Pipe{Latency: 0},
					SinkRefs:   []string{"uart_in"},
				},
			).
			Build("Wrapper")

		Expect(err).To(BeNil())
		Expect(w.PortByName("trace_loop_source")).To(BeNil())
		Expect(w.PortByName("trace_loop_sink")).To(BeNil())
		Expect(w.Ports()).To(HaveLen(1))
		Expect(w.Ports()[0].Name()).To(Equal("uart_in_sink"))
		Expect(w.loopbackChannel("trace_loop").loopback).To(BeTrue())
	})

	It("should synthesize a source port when the sink side is missing", func() {
		w, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(ConnectionDescriptor{
				GlobalName: "clk_enable",
				Kind:       token.ClockControl{},
				SourceRefs: []string{"clk_enable"},
			}).
			Build("Wrapper")

		Expect(err).To(BeNil())

		port := w.PortByName("clk_enable_source")
		Expect(port).NotTo(BeNil())
		Expect(port.Direction()).To(Equal(PortSource))
		Expect(port.ChannelName()).To(Equal("clk_enable"))
		Expect(port.Channel()).NotTo(BeNil())
		Expect(port.Adapter()).To(BeNil())
	})

	It("should reject a descriptor with neither side", func() {
		_, err := MakeWrapperBuilder().
			WithDescriptors(ConnectionDescriptor{
				GlobalName: "dangling",
				Kind:       token.Pipe{Latency: 0},
			}).
			Build("Wrapper")

		Expect(err).To(HaveOccurred())

		wErr, ok := err.(*WiringError)
		Expect(ok).To(BeTrue())
		Expect(wErr.Channel).To(Equal("dangling"))
	})

	It("should reject duplicated channel names", func() {
		_, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(
				ConnectionDescriptor{
					GlobalName: "uart_in",
					Kind:       token.Pipe{Latency: 0},
					SinkRefs:   []string{"uart_in"},
				},
				ConnectionDescriptor{
					GlobalName: "uart_in",
					Kind:       token.Pipe{Latency: 0},
					SinkRefs:   []string{"uart_in"},
				},
			).
			Build("Wrapper")

		Expect(err).To(HaveOccurred())
	})

	It("should reconstruct payloads through the schema lookup", func() {
		w, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(ConnectionDescriptor{
				GlobalName: "uart_out",
				Kind: token.ReadyValidForward{
					ValidSourceRef: "uart_out.valid",
					ReadySinkRef:   "uart_out.ready",
				},
				SourceRefs: []string{"uart_out"},
			}).
			Build("Wrapper")

		Expect(err).To(BeNil())

		port := w.PortByName("uart_out_source")
		Expect(port).NotTo(BeNil())
		Expect(port.Adapter()).NotTo(BeNil())
		Expect(port.Channel()).To(BeNil())
		Expect(port.Payload().IsScalar()).To(BeTrue())
		Expect(port.Payload().WidthBits()).To(Equal(8))
	})

	It("should reject a partially specified handshake", func() {
		_, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(ConnectionDescriptor{
				GlobalName: "uart_out",
				Kind: token.ReadyValidForward{
					ValidSourceRef: "uart_out.valid",
				},
				SourceRefs: []string{"uart_out"},
			}).
			Build("Wrapper")

		Expect(err).To(HaveOccurred())

		aErr, ok := err.(*AdapterError)
		Expect(ok).To(BeTrue())
		Expect(aErr.Channel).To(Equal("uart_out"))
	})

	It("should advance every channel together", func() {
		w, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(ConnectionDescriptor{
				GlobalName: "trace_loop",
				Kind:       token.Pipe{Latency: 2},
				SourceRefs: []string{"trace_loop"},
				SinkRefs:   []string{"trace_loop"},
			}).
			Build("Wrapper")
		Expect(err).To(BeNil())

		ch := w.loopbackChannel("trace_loop").channel
		Expect(ch.Enqueue(token.MakeToken(true, 7))).To(Succeed())

		_, ok := ch.Dequeue()
		Expect(ok).To(BeFalse())

		w.AdvanceAll(2)

		tok, ok := ch.Dequeue()
		Expect(ok).To(BeTrue())
		Expect(tok.Bits[0]).To(Equal(uint64(7)))
	})

	It("should report channel status for every channel", func() {
		w, err := MakeWrapperBuilder().
			WithLookup(testLookup()).
			WithDescriptors(
				ConnectionDescriptor{
					GlobalName: "trace_loop",
					Kind:       token.Pipe{Latency: 1},
					SourceRefs: []string{"trace_loop"},
					SinkRefs:   []string{"trace_loop"},
				},
				ConnectionDescriptor{
					GlobalName: "uart_in",
					Kind:       token.Pipe{Latency: 0},
					SinkRefs:   []string{"uart_in"},
				},
			).
			Build("Wrapper")
		Expect(err).To(BeNil())

		statuses := w.Channels()
		Expect(statuses).To(HaveLen(2))
		Expect(statuses[0].Channel).To(Equal("trace_loop"))
		Expect(statuses[0].Loopback).To(BeTrue())
		Expect(statuses[1].Channel).To(Equal("uart_in"))
		Expect(statuses[1].Loopback).To(BeFalse())
	})
})
