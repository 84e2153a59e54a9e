package mshr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache/internal/mshr"
)

func readTo(addr uint64) *mem.ReadReq {
	return mem.ReadReqBuilder{}.WithAddress(addr).Build()
}

var _ = Describe("MSHR", func() {
	var (
		m *mshr.MSHR
	)

	BeforeEach(func() {
		m = mshr.New(4)
	})

	It("should panic on non-positive capacity", func() {
		Expect(func() { mshr.New(0) }).To(Panic())
	})

	It("should add an entry", func() {
		_, err := m.AddEntry(readTo(0x00))
		Expect(err).NotTo(HaveOccurred())

		Expect(m.Lookup(0x00)).NotTo(BeNil())
		Expect(m.Len()).To(Equal(1))

		Expect(m.RemoveEntry(0x00)).To(Succeed())
		Expect(m.Lookup(0x00)).To(BeNil())
	})

	It("should error if adding an address that is already in MSHR", func() {
		_, _ = m.AddEntry(readTo(0x00))

		_, err := m.AddEntry(readTo(0x00))

		Expect(err).To(
			MatchError("trying to add an address that is already in MSHR"))
	})

	It("should error if adding to a full MSHR", func() {
		for _, addr := range []uint64{0x00, 0x40, 0x80} {
			_, _ = m.AddEntry(readTo(addr))
		}

		Expect(m.IsFull()).To(BeFalse())

		_, _ = m.AddEntry(readTo(0xc0))

		Expect(m.IsFull()).To(BeTrue())
		_, err := m.AddEntry(readTo(0x100))
		Expect(err).To(MatchError("trying to add to a full MSHR"))
	})

	It("should keep waiters in order", func() {
		read := readTo(0x40)
		entry, _ := m.AddEntry(read)

		req1 := mem.ReadReqBuilder{}.WithAddress(0x48).Build()
		req2 := mem.ReadReqBuilder{}.WithAddress(0x40).Build()
		entry.AddWaiter(2, req1)
		entry.AddWaiter(0, req2)

		found := m.LookupByReqID(read.ID)
		Expect(found).To(BeIdenticalTo(entry))
		Expect(found.Waiters).To(HaveLen(2))
		Expect(found.Waiters[0].Req).To(BeIdenticalTo(req1))
		Expect(int(found.Waiters[1].Conn)).To(Equal(0))
	})

	It("should return nil for unknown request IDs", func() {
		Expect(m.LookupByReqID("missing")).To(BeNil())
	})

	It("should reset the mshr", func() {
		_, _ = m.AddEntry(readTo(0x00))

		m.Reset()

		Expect(m.Lookup(0x00)).To(BeNil())
		Expect(m.Entries()).To(BeEmpty())
	})

	It("should error if removing an non-exist entry", func() {
		Expect(m.RemoveEntry(0x00)).
			To(MatchError("trying to remove an non-exist entry"))
	})
})
