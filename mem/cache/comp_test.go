package cache

import (
	"bytes"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/idealmemcontroller"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/tracing"
	"go.uber.org/mock/gomock"
)

func sendRead(conn *sim.Connection, addr uint64) *mem.ReadReq {
	req := mem.ReadReqBuilder{}.
		WithSrc("Agent").
		WithDst("Cache").
		WithAddress(addr).
		Build()
	Expect(conn.SendReq(req)).To(Succeed())

	return req
}

func sendWrite(conn *sim.Connection, addr, value uint64) *mem.WriteReq {
	req := mem.WriteReqBuilder{}.
		WithSrc("Agent").
		WithDst("Cache").
		WithAddress(addr).
		WithValue(value).
		Build()
	Expect(conn.SendReq(req)).To(Succeed())

	return req
}

func mustBuild(b Builder, name string) *Comp {
	c, err := b.Build(name)
	Expect(err).NotTo(HaveOccurred())

	return c
}

var _ = Describe("Builder", func() {
	It("should build the default cache", func() {
		c := mustBuild(MakeBuilder(), "Cache")

		Expect(c.Memory().NumSets()).To(Equal(64))
		Expect(c.Memory().NumWays()).To(Equal(4))
		Expect(c.Memory().LineSize()).To(Equal(64))
		Expect(c.Memory().PolicyKind()).To(Equal(PolicyLRU))
		Expect(c.IsLastLevel()).To(BeTrue())
	})

	It("should report configuration errors", func() {
		_, err := MakeBuilder().
			WithSets(2).
			WithWays(3).
			WithPolicy(PolicyPseudoLRU).
			Build("Cache")

		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
	})

	It("should reject a zero queue depth", func() {
		_, err := MakeBuilder().WithQueueDepth(0).Build("Cache")

		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
		Expect(configErrorParam(err)).To(Equal("queueDepth"))
	})

	It("should reject a capacity that does not fit", func() {
		_, err := MakeBuilder().WithCapacity(math.MaxUint64).Build("Cache")

		Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
		Expect(configErrorParam(err)).To(Equal("capacity"))
	})

	It("should pass the seed to the random policy", func() {
		c := mustBuild(MakeBuilder().
			WithPolicy(PolicyRandom).
			WithSeed(3), "Cache")

		Expect(c.Memory().Policy().(*Random).Seed()).To(Equal(int64(3)))
	})
})

var _ = Describe("Comp", func() {
	It("should panic if connected before setup", func() {
		c := NewComp("Cache")

		Expect(func() { c.Connect() }).To(Panic())
	})

	It("should accept memory parameters", func() {
		c := NewComp("Cache")

		Expect(c.SetConfigParameter("sets", sim.IntValue(4))).To(Succeed())
		Expect(c.SetConfigParameter("ways", sim.IntValue(2))).To(Succeed())
		Expect(c.SetConfigParameter("mshrEntries", sim.IntValue(2))).
			To(Succeed())
		Expect(c.FinishSetup()).To(Succeed())

		Expect(c.Memory().NumSets()).To(Equal(4))
		Expect(c.Memory().NumWays()).To(Equal(2))
	})

	It("should reject unknown parameters", func() {
		c := NewComp("Cache")

		err := c.SetConfigParameter("latency", sim.IntValue(4))

		Expect(errors.Is(err, sim.ErrUnknownParameter)).To(BeTrue())
	})

	It("should reject component parameters of the wrong type", func() {
		c := NewComp("Cache")

		err := c.SetConfigParameter("queueDepth", sim.BoolValue(true))

		Expect(errors.Is(err, sim.ErrWrongValueType)).To(BeTrue())
	})
})

var _ = Describe("Last Level Comp", func() {
	var (
		c    *Comp
		conn *sim.Connection
	)

	BeforeEach(func() {
		c = mustBuild(MakeBuilder().
			WithSets(2).
			WithWays(4).
			WithPolicy(PolicyPseudoLRU), "Cache")
		conn = c.Connection(c.Connect())
	})

	It("should do nothing without requests", func() {
		Expect(c.Clock()).To(BeFalse())
	})

	It("should evict the way picked by the tree", func() {
		for i := uint64(0); i < 4; i++ {
			sendWrite(conn, i*0x80, i+10)
			Expect(c.Clock()).To(BeTrue())

			rsp := conn.RetrieveRsp().(*mem.WriteDoneRsp)
			Expect(rsp.Hit).To(BeFalse())
		}

		sendWrite(conn, 4*0x80, 14)
		c.Clock()
		conn.RetrieveRsp()

		Expect(c.Memory().Entry(0, 0).Tag).To(Equal(uint64(4)))
		Expect(c.Memory().Entry(0, 0).Value).To(Equal(uint64(14)))
		Expect(c.Memory().ValidCount(0)).To(Equal(4))

		_, hit := c.Memory().GetEntry(0)
		Expect(hit).To(BeFalse())

		stats := c.Statistics()
		Expect(stats.Writes).To(Equal(uint64(5)))
		Expect(stats.WriteMisses).To(Equal(uint64(5)))
		Expect(stats.Evictions).To(Equal(uint64(1)))
		Expect(stats.RequestsServed).To(Equal(uint64(5)))
	})

	It("should return written values", func() {
		sendWrite(conn, 0x40, 7)
		c.Clock()
		conn.RetrieveRsp()

		req := sendRead(conn, 0x48)
		c.Clock()

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.RespondTo).To(Equal(req.ID))
		Expect(rsp.Value).To(Equal(uint64(7)))
		Expect(rsp.Hit).To(BeTrue())
		Expect(rsp.Dst).To(Equal("Agent"))
		Expect(rsp.Src).To(Equal("Cache"))

		sendWrite(conn, 0x40, 8)
		c.Clock()

		done := conn.RetrieveRsp().(*mem.WriteDoneRsp)
		Expect(done.Hit).To(BeTrue())

		stats := c.Statistics()
		Expect(stats.ReadHits).To(Equal(uint64(1)))
		Expect(stats.WriteHits).To(Equal(uint64(1)))
		Expect(stats.WriteMisses).To(Equal(uint64(1)))
	})

	It("should install a zero line on a read miss", func() {
		sendRead(conn, 0x100)
		c.Clock()

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.Hit).To(BeFalse())
		Expect(rsp.Value).To(Equal(uint64(0)))

		_, hit := c.Memory().GetEntry(0x100)
		Expect(hit).To(BeTrue())
		Expect(c.Statistics().ReadMisses).To(Equal(uint64(1)))
	})

	It("should take one request from each connection per cycle", func() {
		conn1 := c.Connection(c.Connect())

		sendRead(conn, 0x200)
		sendRead(conn, 0x300)
		sendRead(conn1, 0x200)

		Expect(c.Clock()).To(BeTrue())

		rsp0 := conn.RetrieveRsp().(*mem.DataReadyRsp)
		rsp1 := conn1.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp0.Hit).To(BeFalse())
		Expect(rsp1.Hit).To(BeTrue())
		Expect(conn.ReqBuf().Size()).To(Equal(1))
		Expect(c.Statistics().RequestsServed).To(Equal(uint64(2)))
	})

	It("should stall when the response queue is full", func() {
		for i := 0; i < 4; i++ {
			sendRead(conn, 0)
			c.Clock()
		}

		Expect(conn.RspBuf().Size()).To(Equal(4))

		sendRead(conn, 0x40)
		Expect(c.Clock()).To(BeFalse())
		Expect(conn.ReqBuf().Size()).To(Equal(1))
		Expect(c.Statistics().StallCycles).To(Equal(uint64(1)))

		conn.RetrieveRsp()
		Expect(c.Clock()).To(BeTrue())
		Expect(conn.ReqBuf().Size()).To(Equal(0))
	})

	It("should panic on unknown requests", func() {
		rsp := mem.WriteDoneRspBuilder{}.WithSrc("Agent").Build()
		Expect(conn.SendReq(rsp)).To(Succeed())

		Expect(func() { c.Clock() }).To(Panic())
	})

	It("should drop dirty lines on flush", func() {
		sendWrite(conn, 0x40, 7)
		c.Clock()
		conn.RetrieveRsp()

		c.Flush()
		Expect(c.IsFlushing()).To(BeTrue())

		sendRead(conn, 0x40)
		Expect(c.Clock()).To(BeTrue())
		Expect(c.IsFlushing()).To(BeFalse())

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.Hit).To(BeFalse())
		Expect(rsp.Value).To(Equal(uint64(0)))
	})

	It("should print statistics", func() {
		sendRead(conn, 0)
		c.Clock()

		buf := new(bytes.Buffer)
		c.PrintStatistics(buf)

		Expect(buf.String()).To(ContainSubstring("Cache\n"))
		Expect(buf.String()).To(ContainSubstring("read_misses"))
		Expect(buf.String()).To(ContainSubstring("hit_rate"))
	})

	It("should report counters", func() {
		sendRead(conn, 0)
		c.Clock()

		Expect(c.Counters()).To(ContainElement(
			sim.Counter{Name: "read_misses", Value: 1}))
	})

	It("should trace the requests", func() {
		tracer := tracing.NewTagCountTracer(tracing.AllTasks)
		tracing.CollectTrace(c, tracer)

		sendRead(conn, 0)
		c.Clock()
		conn.RetrieveRsp()
		sendRead(conn, 0)
		c.Clock()

		Expect(tracer.GetTagCount("cache_miss")).To(Equal(uint64(1)))
		Expect(tracer.GetTagCount("cache_hit")).To(Equal(uint64(1)))
	})
})

var _ = Describe("Comp with a next level", func() {
	var (
		engine *sim.SerialEngine
		l2     *Comp
		l1     *Comp
		conn   *sim.Connection
		conn1  *sim.Connection
	)

	BeforeEach(func() {
		l2 = mustBuild(MakeBuilder().WithSets(4).WithWays(4), "L2")
		l1 = mustBuild(MakeBuilder().
			WithSets(1).
			WithWays(1).
			WithMSHREntries(1).
			WithWritebackDepth(1).
			WithNextLevel(l2), "L1")

		conn = l1.Connection(l1.Connect())
		conn1 = l1.Connection(l1.Connect())

		engine = sim.NewSerialEngine(1 * sim.GHz)
		engine.RegisterComponent(l1)
		engine.RegisterComponent(l2)
	})

	It("should fetch missing lines from the next level", func() {
		l2.Memory().Fill(0x80, 42)

		req := sendRead(conn, 0x80)
		l1.Clock()

		Expect(l1.NumPendingMisses()).To(Equal(1))
		Expect(conn.RspBuf().Size()).To(Equal(0))

		Expect(engine.Run(100)).To(Succeed())

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.RespondTo).To(Equal(req.ID))
		Expect(rsp.Value).To(Equal(uint64(42)))
		Expect(rsp.Hit).To(BeFalse())
		Expect(l1.NumPendingMisses()).To(Equal(0))
		Expect(l2.Statistics().ReadHits).To(Equal(uint64(1)))
	})

	It("should merge misses to the same line", func() {
		sendRead(conn, 0x80)
		sendRead(conn1, 0x88)

		Expect(engine.Run(100)).To(Succeed())

		Expect(conn.RetrieveRsp()).NotTo(BeNil())
		Expect(conn1.RetrieveRsp()).NotTo(BeNil())
		Expect(l1.Statistics().MSHRHits).To(Equal(uint64(1)))
		Expect(l2.Statistics().Reads).To(Equal(uint64(1)))
	})

	It("should keep responses in order on a connection", func() {
		first := sendRead(conn, 0x80)
		second := sendRead(conn, 0x80)

		Expect(engine.Run(100)).To(Succeed())

		rsp := conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.RespondTo).To(Equal(first.ID))
		Expect(rsp.Hit).To(BeFalse())

		rsp = conn.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.RespondTo).To(Equal(second.ID))
		Expect(rsp.Hit).To(BeTrue())
	})

	It("should stall when the MSHR is full", func() {
		sendRead(conn, 0x80)
		sendRead(conn1, 0x100)

		l1.Clock()

		Expect(l1.NumPendingMisses()).To(Equal(1))
		Expect(conn1.ReqBuf().Size()).To(Equal(1))
		Expect(l1.Statistics().StallCycles).To(Equal(uint64(1)))

		Expect(engine.Run(100)).To(Succeed())

		Expect(conn.RetrieveRsp()).NotTo(BeNil())
		Expect(conn1.RetrieveRsp()).NotTo(BeNil())
	})

	It("should stall writes to a line that is being fetched", func() {
		sendRead(conn, 0x80)
		sendWrite(conn1, 0x80, 5)

		l1.Clock()

		Expect(conn1.ReqBuf().Size()).To(Equal(1))

		Expect(engine.Run(100)).To(Succeed())

		Expect(conn1.RetrieveRsp().(*mem.WriteDoneRsp).Hit).To(BeTrue())

		entry, hit := l1.Memory().GetEntry(0x80)
		Expect(hit).To(BeTrue())
		Expect(entry.Value).To(Equal(uint64(5)))
		Expect(entry.Dirty).To(BeTrue())
	})

	It("should write back dirty victims", func() {
		sendWrite(conn, 0x00, 5)
		sendWrite(conn1, 0x40, 6)

		Expect(engine.Run(100)).To(Succeed())

		stats := l1.Statistics()
		Expect(stats.Evictions).To(Equal(uint64(1)))
		Expect(stats.Writebacks).To(Equal(uint64(1)))

		entry, hit := l2.Memory().GetEntry(0x00)
		Expect(hit).To(BeTrue())
		Expect(entry.Value).To(Equal(uint64(5)))
		Expect(entry.Dirty).To(BeTrue())
	})

	It("should not fetch a line before its writeback is sent", func() {
		sendWrite(conn, 0x00, 5)
		Expect(engine.Run(100)).To(Succeed())
		conn.RetrieveRsp()

		sendWrite(conn, 0x40, 6)
		sendRead(conn1, 0x00)
		l1.Clock()

		Expect(conn1.ReqBuf().Size()).To(Equal(1))

		Expect(engine.Run(100)).To(Succeed())

		rsp := conn1.RetrieveRsp().(*mem.DataReadyRsp)
		Expect(rsp.Value).To(Equal(uint64(5)))
	})

	It("should keep a writeback slot for each pending miss", func() {
		sendWrite(conn, 0x00, 5)
		Expect(engine.Run(100)).To(Succeed())
		conn.RetrieveRsp()

		sendRead(conn, 0x40)
		sendWrite(conn1, 0x80, 6)
		l1.Clock()

		Expect(l1.NumPendingMisses()).To(Equal(1))
		Expect(conn1.ReqBuf().Size()).To(Equal(1))

		Expect(engine.Run(100)).To(Succeed())

		Expect(conn.RetrieveRsp()).NotTo(BeNil())
		Expect(conn1.RetrieveRsp()).NotTo(BeNil())

		entry, hit := l2.Memory().GetEntry(0x00)
		Expect(hit).To(BeTrue())
		Expect(entry.Value).To(Equal(uint64(5)))
	})

	It("should write back dirty lines on flush", func() {
		sendWrite(conn, 0x40, 6)
		Expect(engine.Run(100)).To(Succeed())
		conn.RetrieveRsp()

		l1.Flush()
		Expect(engine.Run(100)).To(Succeed())

		Expect(l1.IsFlushing()).To(BeFalse())
		Expect(l1.Memory().ValidCount(0)).To(Equal(0))
		Expect(l1.Statistics().Writebacks).To(Equal(uint64(1)))

		entry, hit := l2.Memory().GetEntry(0x40)
		Expect(hit).To(BeTrue())
		Expect(entry.Value).To(Equal(uint64(6)))
	})

	It("should list its buffers", func() {
		Expect(l1.Buffers()).To(HaveLen(5))
	})
})

var _ = Describe("Comp with a short writeback queue", func() {
	It("should complete misses while another requester keeps writing", func() {
		memory, err := idealmemcontroller.MakeBuilder().Build("Memory")
		Expect(err).NotTo(HaveOccurred())

		c := mustBuild(MakeBuilder().
			WithSets(1).
			WithWays(1).
			WithMSHREntries(1).
			WithWritebackDepth(1).
			WithNextLevel(memory), "Cache")
		reader := c.Connection(c.Connect())
		writer := c.Connection(c.Connect())

		engine := sim.NewSerialEngine(1 * sim.GHz)
		engine.RegisterComponent(c)
		engine.RegisterComponent(memory)

		sendWrite(reader, 0x00, 5)
		read := sendRead(reader, 0x40)

		const numWrites = 40
		sent, done := 0, 0
		var readRsp *mem.DataReadyRsp

		for cycle := 0; cycle < 1000; cycle++ {
			if sent < numWrites && writer.CanSendReq() {
				sendWrite(writer, 0x80+uint64(sent)*0x40, uint64(sent))
				sent++
			}

			for writer.PeekRsp() != nil {
				writer.RetrieveRsp()
				done++
			}

			for reader.PeekRsp() != nil {
				if rsp, ok := reader.RetrieveRsp().(*mem.DataReadyRsp); ok {
					readRsp = rsp
				}
			}

			engine.Tick()
		}

		Expect(readRsp).NotTo(BeNil())
		Expect(readRsp.RespondTo).To(Equal(read.ID))
		Expect(done).To(Equal(numWrites))
		Expect(c.NumPendingMisses()).To(Equal(0))
	})
})

var _ = Describe("Statistics Recording", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		c        *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
		c = mustBuild(MakeBuilder(), "Cache")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should create the table on first use", func() {
		recorder.EXPECT().ListTables().Return(nil)
		recorder.EXPECT().CreateTable(StatisticsTable, gomock.Any())
		recorder.EXPECT().InsertData(StatisticsTable, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(statisticsEntry).Component).To(Equal("Cache"))
			})

		c.RecordStatistics(recorder)
	})

	It("should reuse an existing table", func() {
		recorder.EXPECT().ListTables().Return([]string{StatisticsTable})
		recorder.EXPECT().InsertData(StatisticsTable, gomock.Any())

		c.RecordStatistics(recorder)
	})
})

var _ = Describe("Statistics", func() {
	It("should compute the hit rate", func() {
		s := Statistics{Reads: 3, Writes: 1, ReadHits: 2, WriteHits: 1}

		Expect(s.HitRate()).To(BeNumerically("~", 0.75))
		Expect(Statistics{}.HitRate()).To(Equal(0.0))
	})
})
