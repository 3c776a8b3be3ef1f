package cosim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ParseArgs", func() {
	ginkgo.It("should keep the defaults when no arguments are given", func() {
		cfg := ParseArgs(nil)

		Expect(cfg.MaxCycles).To(Equal(Unbounded))
		Expect(cfg.ProfileInterval).To(Equal(NeverProfile))
		Expect(cfg.ZeroOutDRAM).To(BeFalse())
		Expect(cfg.ResetCycles).To(Equal(uint64(DefaultResetCycles)))
	})

	ginkgo.It("should parse a cycle budget", func() {
		cfg := ParseArgs([]string{"+max-cycles=1000"})

		Expect(cfg.MaxCycles).To(Equal(int64(1000)))
	})

	ginkgo.It("should parse a profiling interval", func() {
		cfg := ParseArgs([]string{"+profile-interval=250"})

		Expect(cfg.ProfileInterval).To(Equal(int64(250)))
	})

	ginkgo.It("should parse the zero-out-dram switch", func() {
		cfg := ParseArgs([]string{"+zero-out-dram"})

		Expect(cfg.ZeroOutDRAM).To(BeTrue())
	})

	ginkgo.It("should not depend on argument order", func() {
		a := ParseArgs([]string{"+max-cycles=42", "+zero-out-dram", "+profile-interval=7"})
		b := ParseArgs([]string{"+profile-interval=7", "+max-cycles=42", "+zero-out-dram"})

		Expect(a).To(Equal(b))
	})

	ginkgo.It("should treat malformed cycle values as unbounded", func() {
		cfg := ParseArgs([]string{"+max-cycles=banana"})

		Expect(cfg.MaxCycles).To(Equal(Unbounded))
	})

	ginkgo.It("should treat negative cycle values as unbounded", func() {
		cfg := ParseArgs([]string{"+max-cycles=-5"})

		Expect(cfg.MaxCycles).To(Equal(Unbounded))
	})

	ginkgo.It("should ignore arguments it does not recognize", func() {
		cfg := ParseArgs([]string{"+permissive", "+blkdev0=img", "+max-cycles=9"})

		Expect(cfg.MaxCycles).To(Equal(int64(9)))
	})
})
