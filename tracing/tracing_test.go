package tracing

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TagCountTracer", func() {
	var (
		domain *sim.ComponentBase
		tracer *TagCountTracer
	)

	BeforeEach(func() {
		domain = sim.NewComponentBase("Cache")
		tracer = NewTagCountTracer(func(t Task) bool {
			return t.Kind == "req_in"
		})
		CollectTrace(domain, tracer)
	})

	It("should not collect the same tracer twice", func() {
		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})

	It("should count tags", func() {
		StartTask("1", "", domain, "req_in", "read", nil)
		StartTask("2", "", domain, "req_in", "read", nil)
		StartTask("3", "", domain, "req_to_bottom", "read", nil)

		TagTask("1", domain, "cache_hit")
		TagTask("2", domain, "cache_miss")
		TagTask("2", domain, "mshr_hit")
		TagTask("2", domain, "mshr_hit")
		TagTask("3", domain, "cache_hit")

		EndTask("1", domain)
		EndTask("2", domain)
		TagTask("1", domain, "cache_hit")

		Expect(tracer.GetTagNames()).To(Equal(
			[]string{"cache_hit", "cache_miss", "mshr_hit"}))
		Expect(tracer.GetTagCount("cache_hit")).To(Equal(uint64(1)))
		Expect(tracer.GetTagCount("mshr_hit")).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount("mshr_hit")).To(Equal(uint64(1)))
	})

	It("should panic on tasks without kind", func() {
		Expect(func() {
			StartTask("1", "", domain, "", "read", nil)
		}).To(Panic())
	})
})

var _ = Describe("LogTracer", func() {
	It("should print task events with cycles", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		cycles := NewMockCycleTeller(mockCtrl)
		cycles.EXPECT().CurrentCycle().Return(uint64(7)).AnyTimes()

		buf := new(bytes.Buffer)
		domain := sim.NewComponentBase("Cache")
		CollectTrace(domain, NewLogTracer(log.New(buf, "", 0), cycles))

		StartTask("1", "", domain, "req_in", "*mem.ReadReq", nil)
		TagTask("1", domain, "cache_hit")
		EndTask("1", domain)

		Expect(buf.String()).To(Equal(
			"7, start, Cache, 1, req_in, *mem.ReadReq\n" +
				"7, tag, Cache, 1, cache_hit\n" +
				"7, end, Cache, 1\n"))
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		recorder   *MockDataRecorder
		tracer     *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		recorder = NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable("trace", gomock.Any())
		tracer = NewDBTracer(timeTeller, recorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write finished tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))

		recorder.EXPECT().InsertData("trace", taskTableEntry{
			ID:        "1",
			Kind:      "req_in",
			What:      "read",
			Location:  "Cache",
			Tags:      "cache_miss",
			StartTime: 1,
			EndTime:   3,
		})

		tracer.StartTask(Task{
			ID: "1", Kind: "req_in", What: "read", Where: "Cache",
		})
		tracer.TagTask(Task{ID: "1", Tags: []TaskTag{{What: "cache_miss"}}})
		tracer.EndTask(Task{ID: "1"})
	})

	It("should ignore unknown tasks", func() {
		tracer.TagTask(Task{ID: "9", Tags: []TaskTag{{What: "cache_hit"}}})
		tracer.EndTask(Task{ID: "9"})
	})

	It("should write unfinished tasks on terminate", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(5))

		recorder.EXPECT().InsertData("trace", taskTableEntry{
			ID:        "1",
			Kind:      "req_in",
			What:      "read",
			Location:  "Cache",
			StartTime: 1,
			EndTime:   5,
		})
		recorder.EXPECT().Flush()

		tracer.StartTask(Task{
			ID: "1", Kind: "req_in", What: "read", Where: "Cache",
		})
		tracer.Terminate()
	})
})
