package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/cachesim/mem/idealmemcontroller"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/tracing"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numAccessFlag = flag.Int("num-access",
	100000, "Number of accesses to generate")
var maxAddressFlag = flag.Uint64("max-address", 1048576, "Address range to use")
var traceFileFlag = flag.String("trace", "", "Trace file")
var tickLogFlag = flag.Bool("tick-log", false, "Print every component clock")

func setupTest(seed int64) (*sim.SerialEngine, *memaccessagent.MemAccessAgent) {
	engine := sim.NewSerialEngine(1 * sim.GHz)

	if *tickLogFlag {
		engine.AcceptHook(sim.NewTickLogger(log.New(os.Stdout, "", 0), engine))
	}

	dram, err := idealmemcontroller.MakeBuilder().
		WithNewStorage(4 * mem.GB).
		Build("DRAM")
	if err != nil {
		log.Fatal(err)
	}

	agent := memaccessagent.MakeBuilder().
		WithSeed(seed).
		WithMaxAddress(*maxAddressFlag).
		WithWriteLeft(*numAccessFlag).
		WithReadLeft(*numAccessFlag).
		WithLowModule(dram).
		Build("MemAccessAgent")

	if *traceFileFlag != "" {
		traceFile, err := os.Create(*traceFileFlag)
		if err != nil {
			log.Fatal(err)
		}

		logger := log.New(traceFile, "", 0)
		tracer := tracing.NewLogTracer(logger, engine)
		tracing.CollectTrace(dram, tracer)
	}

	engine.RegisterComponent(agent)
	engine.RegisterComponent(dram)

	return engine, agent
}

func main() {
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	engine, agent := setupTest(seed)

	err := engine.Run(0)
	if err != nil {
		panic(err)
	}

	if !agent.Finished() {
		panic("Not all req returned")
	}

	if agent.Mismatches > 0 {
		panic(fmt.Sprintf("%d reads returned wrong values", agent.Mismatches))
	}
}
