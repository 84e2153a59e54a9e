package cache

import (
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/sim"
)

// Statistics counts what a cache has done.
type Statistics struct {
	Reads          uint64
	Writes         uint64
	ReadHits       uint64
	ReadMisses     uint64
	WriteHits      uint64
	WriteMisses    uint64
	MSHRHits       uint64
	Evictions      uint64
	Writebacks     uint64
	StallCycles    uint64
	RequestsServed uint64
}

// HitRate returns the fraction of reads and writes that hit.
func (s Statistics) HitRate() float64 {
	accesses := s.Reads + s.Writes
	if accesses == 0 {
		return 0
	}

	return float64(s.ReadHits+s.WriteHits) / float64(accesses)
}

type statisticsEntry struct {
	Component      string
	Reads          uint64
	Writes         uint64
	ReadHits       uint64
	ReadMisses     uint64
	WriteHits      uint64
	WriteMisses    uint64
	MSHRHits       uint64
	Evictions      uint64
	Writebacks     uint64
	StallCycles    uint64
	RequestsServed uint64
}

// StatisticsTable is the name of the table RecordStatistics writes to.
const StatisticsTable = "cache_statistics"

// Statistics returns a copy of the counters.
func (c *Comp) Statistics() Statistics {
	return c.stats
}

// Counters returns the statistics as named counters.
func (c *Comp) Counters() []sim.Counter {
	s := c.stats

	return []sim.Counter{
		{Name: "reads", Value: s.Reads},
		{Name: "writes", Value: s.Writes},
		{Name: "read_hits", Value: s.ReadHits},
		{Name: "read_misses", Value: s.ReadMisses},
		{Name: "write_hits", Value: s.WriteHits},
		{Name: "write_misses", Value: s.WriteMisses},
		{Name: "mshr_hits", Value: s.MSHRHits},
		{Name: "evictions", Value: s.Evictions},
		{Name: "writebacks", Value: s.Writebacks},
		{Name: "stall_cycles", Value: s.StallCycles},
		{Name: "requests_served", Value: s.RequestsServed},
	}
}

// PrintStatistics writes the counters in a human-readable format.
func (c *Comp) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "%s\n", c.Name())

	for _, counter := range c.Counters() {
		fmt.Fprintf(w, "\t%-16s %d\n", counter.Name, counter.Value)
	}

	fmt.Fprintf(w, "\t%-16s %.4f\n", "hit_rate", c.stats.HitRate())
}

// RecordStatistics inserts the counters as one row of the cache statistics
// table. The table is created if the recorder does not have it yet.
func (c *Comp) RecordStatistics(recorder datarecording.DataRecorder) {
	if !containsTable(recorder.ListTables(), StatisticsTable) {
		recorder.CreateTable(StatisticsTable, statisticsEntry{})
	}

	s := c.stats
	recorder.InsertData(StatisticsTable, statisticsEntry{
		Component:      c.Name(),
		Reads:          s.Reads,
		Writes:         s.Writes,
		ReadHits:       s.ReadHits,
		ReadMisses:     s.ReadMisses,
		WriteHits:      s.WriteHits,
		WriteMisses:    s.WriteMisses,
		MSHRHits:       s.MSHRHits,
		Evictions:      s.Evictions,
		Writebacks:     s.Writebacks,
		StallCycles:    s.StallCycles,
		RequestsServed: s.RequestsServed,
	})
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}

	return false
}
