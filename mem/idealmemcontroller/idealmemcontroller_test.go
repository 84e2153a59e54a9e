package idealmemcontroller

import (
	"bytes"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

var _ = Describe("Ideal Memory Controller", func() {
	var (
		memController *Comp
		conn          *sim.Connection
	)

	BeforeEach(func() {
		var err error
		memController, err = MakeBuilder().
			WithNewStorage(1 * mem.MB).
			WithQueueDepth(2).
			Build("MemCtrl")
		Expect(err).NotTo(HaveOccurred())

		conn = memController.Connection(memController.Connect())
	})

	It("should process read request", func() {
		Expect(memController.Storage.WriteUint64(0x40, 9)).To(Succeed())

		readReq := mem.ReadReqBuilder{}.
			WithSrc("Cache").
			WithDst("MemCtrl").
			WithAddress(0x40).
			Build()
		Expect(conn.SendReq(readReq)).To(Succeed())

		madeProgress := memController.Clock()

		Expect(madeProgress).To(BeTrue())

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.RespondTo).To(Equal(readReq.ID))
		Expect(rsp.Value).To(Equal(uint64(9)))
		Expect(rsp.Dst).To(Equal("Cache"))
	})

	It("should process write request", func() {
		writeReq := mem.WriteReqBuilder{}.
			WithSrc("Cache").
			WithDst("MemCtrl").
			WithAddress(0x80).
			WithValue(12).
			Build()
		Expect(conn.SendReq(writeReq)).To(Succeed())

		madeProgress := memController.Clock()

		Expect(madeProgress).To(BeTrue())

		rsp := conn.RetrieveRsp().(*mem.WriteDoneRsp)
		Expect(rsp.RespondTo).To(Equal(writeReq.ID))

		value, err := memController.Storage.ReadUint64(0x80)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(uint64(12)))
	})

	It("should wait if the response queue is full", func() {
		for i := 0; i < 2; i++ {
			Expect(conn.SendReq(mem.ReadReqBuilder{}.Build())).To(Succeed())
			memController.Clock()
		}

		Expect(conn.SendReq(mem.ReadReqBuilder{}.Build())).To(Succeed())

		Expect(memController.Clock()).To(BeFalse())
		Expect(conn.ReqBuf().Size()).To(Equal(1))
	})

	It("should serve every connection in a cycle", func() {
		conn1 := memController.Connection(memController.Connect())

		Expect(conn.SendReq(mem.ReadReqBuilder{}.Build())).To(Succeed())
		Expect(conn1.SendReq(mem.ReadReqBuilder{}.Build())).To(Succeed())

		memController.Clock()

		Expect(conn.RspBuf().Size()).To(Equal(1))
		Expect(conn1.RspBuf().Size()).To(Equal(1))
		Expect(memController.Buffers()).To(HaveLen(4))
	})

	It("should count requests", func() {
		Expect(conn.SendReq(mem.ReadReqBuilder{}.Build())).To(Succeed())
		memController.Clock()

		buf := new(bytes.Buffer)
		memController.PrintStatistics(buf)

		Expect(buf.String()).To(ContainSubstring("reads"))
		Expect(memController.Counters()).To(ContainElement(
			sim.Counter{Name: "reads", Value: 1}))
	})

	It("should panic on accesses beyond the capacity", func() {
		req := mem.ReadReqBuilder{}.WithAddress(1 * mem.MB).Build()
		Expect(conn.SendReq(req)).To(Succeed())

		Expect(func() { memController.Clock() }).To(Panic())
	})
})

var _ = Describe("Ideal Memory Controller Configuration", func() {
	It("should reject unknown parameters", func() {
		c := NewComp("MemCtrl")

		err := c.SetConfigParameter("latency", sim.IntValue(100))

		Expect(errors.Is(err, sim.ErrUnknownParameter)).To(BeTrue())
	})

	It("should reject a zero capacity", func() {
		_, err := MakeBuilder().WithNewStorage(0).Build("MemCtrl")

		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
	})

	It("should reject a capacity that does not fit", func() {
		_, err := MakeBuilder().WithNewStorage(math.MaxUint64).Build("MemCtrl")

		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
	})

	It("should use the given storage", func() {
		storage := mem.NewStorage(4 * mem.KB)

		c, err := MakeBuilder().WithStorage(storage).Build("MemCtrl")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Storage).To(BeIdenticalTo(storage))
	})
})
