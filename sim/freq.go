package sim

import "fmt"

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// Freq is the clock frequency of an engine, in Hz.
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// TimeOf returns the time at which the given cycle starts.
func (f Freq) TimeOf(cycle uint64) VTimeInSec {
	return VTimeInSec(float64(cycle) / float64(f))
}

func (f Freq) String() string {
	switch {
	case f >= GHz:
		return fmt.Sprintf("%gGHz", float64(f/GHz))
	case f >= MHz:
		return fmt.Sprintf("%gMHz", float64(f/MHz))
	case f >= KHz:
		return fmt.Sprintf("%gKHz", float64(f/KHz))
	default:
		return fmt.Sprintf("%gHz", float64(f))
	}
}
