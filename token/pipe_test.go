package token

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bridgesim/hooking"
)

var _ = Describe("PipeChannel", func() {
	var channel *PipeChannel

	BeforeEach(func() {
		channel = MakePipeChannelBuilder().
			WithLatency(3).
			WithCapacity(8).
			Build("reset_queue")
	})

	It("should hold tokens back until the latency elapses", func() {
		err := channel.Enqueue(MakeToken(true, 0xff))
		Expect(err).To(BeNil())

		_, ok := channel.Dequeue()
		Expect(ok).To(BeFalse())

		channel.Advance(2)
		_, ok = channel.Dequeue()
		Expect(ok).To(BeFalse())

		channel.Advance(1)
		tok, ok := channel.Dequeue()
		Expect(ok).To(BeTrue())
		Expect(tok.Valid).To(BeTrue())
		Expect(tok.Bits).To(Equal([]uint64{0xff}))
	})

	It("should deliver tokens in FIFO order at enqueue-time plus latency", func() {
		for i := uint64(0); i < 5; i++ {
			err := channel.Enqueue(MakeToken(true, i))
			Expect(err).To(BeNil())
			channel.Advance(1)
		}

		// The first token was enqueued at step 0 and the channel now sits at
		// step 5, so tokens 0, 1, and 2 have matured.
		for i := uint64(0); i < 3; i++ {
			tok, ok := channel.Dequeue()
			Expect(ok).To(BeTrue())
			Expect(tok.Bits[0]).To(Equal(i))
		}

		_, ok := channel.Dequeue()
		Expect(ok).To(BeFalse())

		channel.Advance(2)
		for i := uint64(3); i < 5; i++ {
			tok, ok := channel.Dequeue()
			Expect(ok).To(BeTrue())
			Expect(tok.Bits[0]).To(Equal(i))
		}
	})

	It("should deliver zero-latency tokens in the same step", func() {
		wire := MakePipeChannelBuilder().WithCapacity(4).Build("wire")

		Expect(wire.Enqueue(MakeToken(false))).To(Succeed())

		tok, ok := wire.Dequeue()
		Expect(ok).To(BeTrue())
		Expect(tok.Valid).To(BeFalse())
	})

	It("should queue tokens without loss under backpressure", func() {
		for i := uint64(0); i < 8; i++ {
			err := channel.Enqueue(MakeToken(true, i))
			Expect(err).To(BeNil())
		}

		channel.Advance(100)

		for i := uint64(0); i < 8; i++ {
			tok, ok := channel.Dequeue()
			Expect(ok).To(BeTrue())
			Expect(tok.Bits[0]).To(Equal(i))
		}
	})

	It("should fail with ChannelOverflowError beyond the bound", func() {
		for i := 0; i < 8; i++ {
			Expect(channel.CanEnqueue()).To(BeTrue())
			Expect(channel.Enqueue(MakeToken(true))).To(Succeed())
		}

		Expect(channel.CanEnqueue()).To(BeFalse())

		err := channel.Enqueue(MakeToken(true))
		Expect(err).To(HaveOccurred())

		overflow, ok := err.(*ChannelOverflowError)
		Expect(ok).To(BeTrue())
		Expect(overflow.Channel).To(Equal("reset_queue"))
		Expect(overflow.Capacity).To(Equal(8))
	})

	It("should invoke hooks on enqueue and dequeue", func() {
		hook := &countingHook{}
		channel.AcceptHook(hook)

		Expect(channel.Enqueue(MakeToken(true))).To(Succeed())
		channel.Advance(3)
		_, ok := channel.Dequeue()

		Expect(ok).To(BeTrue())
		Expect(hook.enqueued).To(Equal(1))
		Expect(hook.dequeued).To(Equal(1))
	})
})

var _ = Describe("ChannelKind", func() {
	It("should name every kind", func() {
		Expect(KindName(Pipe{Latency: 2})).To(Equal("pipe(latency=2)"))
		Expect(KindName(ReadyValidForward{})).To(Equal("ready-valid"))
		Expect(KindName(ClockControl{})).To(Equal("clock-control"))
		Expect(KindName(TargetClock{Count: 3})).
			To(Equal("target-clock(count=3)"))
	})

	It("should report ready-valid refs as control fields", func() {
		kind := ReadyValidForward{
			ValidSourceRef: "ch.valid",
			ReadySinkRef:   "ch.ready",
		}

		Expect(ControlRefs(kind)).To(Equal([]string{"ch.valid", "ch.ready"}))
		Expect(ControlRefs(Pipe{Latency: 1})).To(BeNil())
	})

	It("should only delay pipe channels", func() {
		Expect(Latency(Pipe{Latency: 4})).To(Equal(4))
		Expect(Latency(ClockControl{})).To(Equal(0))
		Expect(Latency(TargetClock{Count: 1})).To(Equal(0))
		Expect(Latency(ReadyValidForward{})).To(Equal(0))
	})
})

type countingHook struct {
	enqueued int
	dequeued int
}

func (h *countingHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosChanEnqueue:
		h.enqueued++
	case HookPosChanDequeue:
		h.dequeued++
	}
}
