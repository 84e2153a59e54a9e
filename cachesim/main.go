// Command cachesim runs a requester, a cache, and a memory in a tick-driven
// simulation and reports the cache statistics.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
