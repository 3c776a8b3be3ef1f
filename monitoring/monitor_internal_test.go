package monitoring

import (
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bridgesim/wiring"
)

var _ = Describe("Monitor", func() {
	statuses := []wiring.ChannelStatus{
		{Channel: "uart_in", Queued: 2, Capacity: 16},
		{Channel: "uart_out", Queued: 8, Capacity: 16},
		{Channel: "trace_loop", Queued: 3, Capacity: 4},
	}

	It("should sort channels by fill percent by default", func() {
		sorted := sortAndSelectChannels(statuses, "percent", 0, 0)

		Expect(sorted[0].Channel).To(Equal("trace_loop"))
		Expect(sorted[1].Channel).To(Equal("uart_out"))
		Expect(sorted[2].Channel).To(Equal("uart_in"))
	})

	It("should sort channels by level", func() {
		sorted := sortAndSelectChannels(statuses, "level", 0, 0)

		Expect(sorted[0].Channel).To(Equal("uart_out"))
		Expect(sorted[1].Channel).To(Equal("trace_loop"))
		Expect(sorted[2].Channel).To(Equal("uart_in"))
	})

	It("should apply limit and offset", func() {
		sorted := sortAndSelectChannels(statuses, "percent", 1, 1)

		Expect(sorted).To(HaveLen(1))
		Expect(sorted[0].Channel).To(Equal("uart_out"))
	})

	It("should tolerate an offset past the end", func() {
		sorted := sortAndSelectChannels(statuses, "percent", 10, 10)

		Expect(sorted).To(BeEmpty())
	})

	It("should not mutate the input order", func() {
		sortAndSelectChannels(statuses, "percent", 0, 0)

		Expect(statuses[0].Channel).To(Equal("uart_in"))
	})

	It("should accept default query parameters", func() {
		r := httptest.NewRequest("GET", "/api/channels", nil)

		sortMethod, limit, offset, err := channelsParseParams(r)

		Expect(err).To(BeNil())
		Expect(sortMethod).To(Equal("percent"))
		Expect(limit).To(Equal(0))
		Expect(offset).To(Equal(0))
	})

	It("should parse explicit query parameters", func() {
		r := httptest.NewRequest(
			"GET", "/api/channels?sort=level&limit=5&offset=2", nil)

		sortMethod, limit, offset, err := channelsParseParams(r)

		Expect(err).To(BeNil())
		Expect(sortMethod).To(Equal("level"))
		Expect(limit).To(Equal(5))
		Expect(offset).To(Equal(2))
	})

	It("should reject an unknown sort method", func() {
		r := httptest.NewRequest("GET", "/api/channels?sort=name", nil)

		_, _, _, err := channelsParseParams(r)

		Expect(err).To(HaveOccurred())
	})

	It("should reject a malformed limit", func() {
		r := httptest.NewRequest("GET", "/api/channels?limit=abc", nil)

		_, _, _, err := channelsParseParams(r)

		Expect(err).To(HaveOccurred())
	})
})
