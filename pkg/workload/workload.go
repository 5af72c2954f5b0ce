// Package workload implements the simulator's Workload entity: a
// time-bounded, four-dimensional resource demand admitted to a Container.
package workload

import (
	"fmt"

	"github.com/fabricsim/fabricsim/pkg/simrand"
	"github.com/fabricsim/fabricsim/pkg/units"
)

// Spec is the construction-time description of a workload, as decoded from
// configuration or built directly by a caller.
type Spec struct {
	CPU      float64
	RAM      int
	Disk     int
	BW       int
	Delay    float64
	Duration float64

	JitterCPU  float64
	JitterRAM  float64
	JitterDisk float64
	JitterBW   float64

	Priority *int
	Type     *string
}

// Validate checks Spec against the invariants from the specification:
// non-negative magnitudes, a strictly positive duration, and jitter
// percentages bounded to [0, 100].
func (s Spec) Validate() error {
	var errs units.ValidationErrors
	errs.AddIf(s.CPU < 0, "CPU", s.CPU, "CPU must be non-negative")
	errs.AddIf(s.RAM < 0, "RAM", s.RAM, "RAM must be non-negative")
	errs.AddIf(s.Disk < 0, "Disk", s.Disk, "Disk must be non-negative")
	errs.AddIf(s.BW < 0, "BW", s.BW, "BW must be non-negative")
	errs.AddIf(s.Delay < 0, "Delay", s.Delay, "Delay must be non-negative")
	errs.AddIf(s.Duration <= 0, "Duration", s.Duration, "Duration must be > 0")
	for _, j := range []struct {
		name string
		val  float64
	}{
		{"JitterCPU", s.JitterCPU}, {"JitterRAM", s.JitterRAM},
		{"JitterDisk", s.JitterDisk}, {"JitterBW", s.JitterBW},
	} {
		errs.AddIf(j.val < 0 || j.val > 100, j.name, j.val, "jitter percentage must be in [0,100]")
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Workload is a value-typed resource demand; it is immutable after
// creation except for the Active flag, which its hosting Container flips
// at activation/deactivation time.
type Workload struct {
	ID       int64
	CPU      float64
	RAM      int
	Disk     int
	BW       int
	Delay    float64
	Duration float64

	JitterCPU  float64
	JitterRAM  float64
	JitterDisk float64
	JitterBW   float64

	Priority *int
	Type     *string

	Active bool

	// activation* remember the exact sample added at activation time so
	// deactivation subtracts an equal quantity (see spec Design Notes on
	// stable activation samples — this is what keeps usage conservation,
	// property P3, from drifting under jitter).
	activationSet  bool
	activationCPU  float64
	activationRAM  int
	activationDisk int
	activationBW   int
}

// New validates spec and constructs a Workload with the next id from ids.
func New(ids *units.IDSequence, spec Spec) (*Workload, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	return &Workload{
		ID:         ids.Next(),
		CPU:        spec.CPU,
		RAM:        spec.RAM,
		Disk:       spec.Disk,
		BW:         spec.BW,
		Delay:      spec.Delay,
		Duration:   spec.Duration,
		JitterCPU:  spec.JitterCPU,
		JitterRAM:  spec.JitterRAM,
		JitterDisk: spec.JitterDisk,
		JitterBW:   spec.JitterBW,
		Priority:   spec.Priority,
		Type:       spec.Type,
	}, nil
}

// LiveWindow returns the workload's active interval given the time it was
// admitted to a container: [admission+delay, admission+delay+duration).
func (w *Workload) LiveWindow(admission float64) (start, end float64) {
	start = admission + w.Delay
	end = start + w.Duration
	return
}

// CurrentCPUWorkload samples a fresh CPU usage value uniformly from
// [max(0, cpu - cpu*jitter/100), cpu + cpu*jitter/100], truncated to two
// decimal places.
func (w *Workload) CurrentCPUWorkload(rng simrand.Source) float64 {
	spread := w.CPU * (w.JitterCPU / 100)
	lo := units.ClampFloat(w.CPU - spread)
	hi := w.CPU + spread
	return units.Round2(simrand.UniformFloat(rng, lo, hi))
}

// CurrentRAMWorkload samples a fresh RAM usage value, integral.
func (w *Workload) CurrentRAMWorkload(rng simrand.Source) int {
	spread := int(float64(w.RAM) * (w.JitterRAM / 100))
	lo := units.ClampInt(w.RAM - spread)
	hi := w.RAM + spread
	return simrand.UniformInt(rng, lo, hi)
}

// CurrentDiskWorkload samples a fresh Disk usage value, integral.
func (w *Workload) CurrentDiskWorkload(rng simrand.Source) int {
	spread := int(float64(w.Disk) * (w.JitterDisk / 100))
	lo := units.ClampInt(w.Disk - spread)
	hi := w.Disk + spread
	return simrand.UniformInt(rng, lo, hi)
}

// CurrentBWWorkload samples a fresh Bandwidth usage value, integral.
func (w *Workload) CurrentBWWorkload(rng simrand.Source) int {
	spread := int(float64(w.BW) * (w.JitterBW / 100))
	lo := units.ClampInt(w.BW - spread)
	hi := w.BW + spread
	return simrand.UniformInt(rng, lo, hi)
}

// CurrentCPUJitter samples a symmetric per-tick CPU perturbation.
func (w *Workload) CurrentCPUJitter(rng simrand.Source) float64 {
	spread := w.CPU * (w.JitterCPU / 100)
	return units.Round2(simrand.UniformFloat(rng, -spread, spread))
}

// CurrentRAMJitter samples a symmetric per-tick RAM perturbation.
func (w *Workload) CurrentRAMJitter(rng simrand.Source) int {
	spread := int(float64(w.RAM) * (w.JitterRAM / 100))
	return simrand.UniformInt(rng, -spread, spread)
}

// CurrentDiskJitter samples a symmetric per-tick Disk perturbation.
func (w *Workload) CurrentDiskJitter(rng simrand.Source) int {
	spread := int(float64(w.Disk) * (w.JitterDisk / 100))
	return simrand.UniformInt(rng, -spread, spread)
}

// CurrentBWJitter samples a symmetric per-tick Bandwidth perturbation.
func (w *Workload) CurrentBWJitter(rng simrand.Source) int {
	spread := int(float64(w.BW) * (w.JitterBW / 100))
	return simrand.UniformInt(rng, -spread, spread)
}

// Activate marks the workload active and remembers the sampled
// contribution so Deactivate can subtract the exact same quantity.
func (w *Workload) Activate(rng simrand.Source) (cpu float64, ram, disk, bw int) {
	cpu = w.CurrentCPUWorkload(rng)
	ram = w.CurrentRAMWorkload(rng)
	disk = w.CurrentDiskWorkload(rng)
	bw = w.CurrentBWWorkload(rng)
	w.activationCPU, w.activationRAM, w.activationDisk, w.activationBW = cpu, ram, disk, bw
	w.activationSet = true
	w.Active = true
	return
}

// Deactivate clears the Active flag and returns the exact quantities
// previously added at Activate, for the container to subtract.
func (w *Workload) Deactivate() (cpu float64, ram, disk, bw int) {
	cpu, ram, disk, bw = w.activationCPU, w.activationRAM, w.activationDisk, w.activationBW
	w.Active = false
	w.activationSet = false
	return
}

// HasActivationSample reports whether Activate has recorded a pending
// contribution not yet reversed by Deactivate — used when a container or
// node is force-stopped mid-lifecycle.
func (w *Workload) HasActivationSample() bool {
	return w.activationSet
}
