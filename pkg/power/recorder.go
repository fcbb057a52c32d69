package power

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// entry is one charged instruction: a category/modulus pair and the number
// of cycles the instruction cost.
type entry struct {
	cat    Category
	q      int64
	cycles int64
}

// Recorder accumulates per-instruction cycle charges under a mutex, in the
// style of a concurrent-safe result accumulator, although the simulator
// itself is single-threaded.
type Recorder struct {
	mu      sync.Mutex
	entries []entry
	vdd     float64
	fMHz    float64
	rng     *rand.Rand
}

// NewRecorder creates a Recorder at the given supply voltage (V) and clock
// frequency (MHz), with noise driven by a seeded PCG generator so runs are
// reproducible.
func NewRecorder(vdd, fMHz float64, seed uint64) *Recorder {
	return &Recorder{
		vdd:  vdd,
		fMHz: fMHz,
		rng:  rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)),
	}
}

// Charge records cycles spent in category cat at modulus q (q is ignored
// for flat, q-independent categories).
func (r *Recorder) Charge(cat Category, q int64, cycles int64) error {
	if cycles < 0 {
		return fmt.Errorf("negative cycle charge %d for category %s", cycles, cat)
	}
	if _, ok := Idd(cat, q); !ok {
		return fmt.Errorf("no IDD entry for category %s at q=%d", cat, q)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{cat: cat, q: q, cycles: cycles})
	return nil
}

// TotalCycles returns the sum of all charged cycles so far.
func (r *Recorder) TotalCycles() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, e := range r.entries {
		total += e.cycles
	}
	return total
}

// iLeak is the leakage current component, in microamps, as a function of
// supply voltage.
func iLeak(vdd float64) float64 {
	return 11.728 * math.Exp(3.0933*vdd)
}

// iCycle returns the per-cycle current draw, in microamps, for an
// instruction with base IDD idd microamps, at the recorder's vdd/fMHz.
func iCycle(idd int64, vdd, fMHz float64) float64 {
	return iLeak(vdd) + (float64(idd)-355.7)*(fMHz/72.0)*(vdd/1.1)
}

// Report is the final accounting summary.
type Report struct {
	Instructions int     `json:"instructions"`
	Cycles       int64   `json:"cycles"`
	TimeSeconds  float64 `json:"time_seconds"`
	AvgPowerW    float64 `json:"avg_power_watts"`
	EnergyJoules float64 `json:"energy_joules"`
}

// Finalize walks every charged entry, applies +-1% uniform noise per cycle,
// and produces the aggregate time/power/energy report.
func (r *Recorder) Finalize() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	cycleTime := 1.0 / (r.fMHz * 1e6)
	var totalCycles int64
	var totalEnergy float64

	for _, e := range r.entries {
		idd, _ := Idd(e.cat, e.q)
		base := iCycle(idd, r.vdd, r.fMHz)
		for c := int64(0); c < e.cycles; c++ {
			noise := 1.0 + (r.rng.Float64()*0.02 - 0.01)
			current := base * noise
			pCycle := current * r.vdd * 1e-6 // microamps -> amps
			totalEnergy += pCycle * cycleTime
			totalCycles++
		}
	}

	timeSeconds := float64(totalCycles) * cycleTime
	avgPower := 0.0
	if timeSeconds > 0 {
		avgPower = totalEnergy / timeSeconds
	}

	return Report{
		Instructions: len(r.entries),
		Cycles:       totalCycles,
		TimeSeconds:  timeSeconds,
		AvgPowerW:    avgPower,
		EnergyJoules: totalEnergy,
	}
}
