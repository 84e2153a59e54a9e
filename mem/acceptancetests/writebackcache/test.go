package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/idealmemcontroller"
	"github.com/sarchlab/cachesim/sim"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numAccessFlag = flag.Int("num-access", 100000,
	"Number of accesses to generate")
var maxAddressFlag = flag.Uint64("max-address", 1048576, "Address range to use")
var policyFlag = flag.String("policy", "lru", "Replacement policy")

var engine *sim.SerialEngine
var agent *memaccessagent.MemAccessAgent
var writeBackCache *cache.Comp

func main() {
	flag.Parse()

	seed := initSeed()
	buildEnvironment(seed)
	runSimulation()
	allMsgsMustBeSent()
}

func initSeed() int64 {
	var seed int64
	if *seedFlag == 0 {
		seed = time.Now().UnixNano()
	} else {
		seed = *seedFlag
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	return seed
}

func buildEnvironment(seed int64) {
	engine = sim.NewSerialEngine(1 * sim.GHz)

	dram, err := idealmemcontroller.MakeBuilder().
		WithNewStorage(4 * mem.GB).
		Build("DRAM")
	if err != nil {
		panic(err)
	}

	policy, err := cache.ParsePolicyKind(*policyFlag)
	if err != nil {
		panic(err)
	}

	builder := cache.MakeBuilder().
		WithLineSize(64).
		WithWays(4).
		WithCapacity(16 * mem.KB).
		WithPolicy(policy).
		WithMSHREntries(4).
		WithNextLevel(dram)
	if policy == cache.PolicyRandom {
		builder = builder.WithSeed(seed)
	}

	writeBackCache, err = builder.Build("Cache")
	if err != nil {
		panic(err)
	}

	agent = memaccessagent.MakeBuilder().
		WithSeed(seed).
		WithMaxAddress(*maxAddressFlag).
		WithWriteLeft(*numAccessFlag).
		WithReadLeft(*numAccessFlag).
		WithLowModule(writeBackCache).
		Build("MemAccessAgent")

	engine.RegisterComponent(agent)
	engine.RegisterComponent(writeBackCache)
	engine.RegisterComponent(dram)
}

func runSimulation() {
	err := engine.Run(0)
	if err != nil {
		panic(err)
	}

	writeBackCache.PrintStatistics(os.Stderr)
}

func allMsgsMustBeSent() {
	if len(agent.PendingWriteReq) > 0 || len(agent.PendingReadReq) > 0 {
		panic("Not all req returned")
	}

	if agent.WriteLeft > 0 || agent.ReadLeft > 0 {
		panic("more requests to send")
	}

	if agent.Mismatches > 0 {
		panic(fmt.Sprintf("%d reads returned wrong values", agent.Mismatches))
	}
}
