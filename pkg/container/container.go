// Package container implements the simulator's Container entity: a set of
// admitted Workloads whose activations and deactivations drive four
// aggregate resource usage counters.
package container

import (
	"fmt"
	"log"
	"sort"

	"github.com/fabricsim/fabricsim/pkg/clock"
	"github.com/fabricsim/fabricsim/pkg/simrand"
	"github.com/fabricsim/fabricsim/pkg/units"
	"github.com/fabricsim/fabricsim/pkg/workload"
)

// Spec is the construction-time description of a Container.
type Spec struct {
	Name string

	CPU  float64
	RAM  int
	Disk int
	BW   int

	JitterCPU  float64
	JitterRAM  float64
	JitterDisk float64
	JitterBW   float64

	StartUpDelay float64

	// Workloads are admitted at time 0 as part of construction, matching
	// the configuration loader's "initial workload list" option.
	Workloads []workload.Spec

	Logger *log.Logger
}

func (s Spec) validate() error {
	var errs units.ValidationErrors
	errs.AddIf(s.Name == "", "Name", s.Name, "name must not be empty")
	errs.AddIf(s.CPU < 0, "CPU", s.CPU, "CPU must be non-negative")
	errs.AddIf(s.RAM < 0, "RAM", s.RAM, "RAM must be non-negative")
	errs.AddIf(s.Disk < 0, "Disk", s.Disk, "Disk must be non-negative")
	errs.AddIf(s.BW < 0, "BW", s.BW, "BW must be non-negative")
	errs.AddIf(s.StartUpDelay < 0, "StartUpDelay", s.StartUpDelay, "StartUpDelay must be non-negative")
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Container aggregates admitted Workloads and tracks their combined
// resource usage across four dimensions.
type Container struct {
	ID   int64
	Name string

	CPU  float64
	RAM  int
	Disk int
	BW   int

	JitterCPU  float64
	JitterRAM  float64
	JitterDisk float64
	JitterBW   float64

	StartUpDelay float64
	Running      bool

	CurrentCPUUsage  float64
	CurrentRAMUsage  int
	CurrentDiskUsage int
	CurrentBWUsage   int

	// workloads maps admission time to the ordered list of workloads
	// admitted at that instant. Go's map iteration order is randomized,
	// so every tick walks a freshly sorted copy of the keys rather than
	// ranging over the map directly, keeping PRNG draw order
	// reproducible across runs with the same seed.
	workloads map[float64][]*workload.Workload
	admitted  map[int64]bool

	History *units.History
	Logger  *log.Logger
}

// New validates spec and constructs a Container with the next id from ids.
// Any spec.Workloads are admitted immediately at time 0.
func New(ids *units.IDSequence, wids *units.IDSequence, spec Spec) (*Container, error) {
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid container spec: %w", err)
	}
	logger := spec.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{
		ID:           ids.Next(),
		Name:         spec.Name,
		CPU:          spec.CPU,
		RAM:          spec.RAM,
		Disk:         spec.Disk,
		BW:           spec.BW,
		JitterCPU:    spec.JitterCPU,
		JitterRAM:    spec.JitterRAM,
		JitterDisk:   spec.JitterDisk,
		JitterBW:     spec.JitterBW,
		StartUpDelay: spec.StartUpDelay,
		workloads:    make(map[float64][]*workload.Workload),
		admitted:     make(map[int64]bool),
		History:      &units.History{},
		Logger:       logger,
	}
	for _, wspec := range spec.Workloads {
		w, err := workload.New(wids, wspec)
		if err != nil {
			return nil, fmt.Errorf("container %q initial workload: %w", spec.Name, err)
		}
		c.AddWorkload(0, w)
	}
	return c, nil
}

// AddWorkload admits w under the bucket for admission time now. Re-adding a
// workload identity already present is silently ignored with a diagnostic,
// satisfying idempotent admission.
func (c *Container) AddWorkload(now float64, w *workload.Workload) {
	if c.admitted[w.ID] {
		c.Logger.Printf("container %s: ignoring duplicate admission of workload %d", c.Name, w.ID)
		return
	}
	c.admitted[w.ID] = true
	c.workloads[now] = append(c.workloads[now], w)
}

// StartStep returns the engine process that waits StartUpDelay virtual-time
// units and then marks the container running.
func (c *Container) StartStep() clock.Step {
	started := false
	var step clock.Step
	step = func(now float64) (float64, bool) {
		if !started {
			started = true
			return c.StartUpDelay, true
		}
		c.Running = true
		return 0, false
	}
	return step
}

// RunStep returns the engine process that ticks the container every unit of
// virtual time. While not running the tick is a no-op, matching the spec's
// "stop causes subsequent ticks to be no-ops" cancellation model.
func (c *Container) RunStep(rng simrand.Source) clock.Step {
	return func(now float64) (float64, bool) {
		if c.Running {
			c.tick(now, rng)
		}
		return 1, true
	}
}

func (c *Container) tick(now float64, rng simrand.Source) {
	admissionTimes := make([]float64, 0, len(c.workloads))
	for t := range c.workloads {
		admissionTimes = append(admissionTimes, t)
	}
	sort.Float64s(admissionTimes)

	for _, t := range admissionTimes {
		bucket := c.workloads[t]
		kept := bucket[:0:0]
		for _, w := range bucket {
			s := t + w.Delay
			e := s + w.Duration
			switch {
			case s <= now && now < e && !w.Active:
				cpu, ram, disk, bw := w.Activate(rng)
				c.CurrentCPUUsage += cpu
				c.CurrentRAMUsage += ram
				c.CurrentDiskUsage += disk
				c.CurrentBWUsage += bw
				kept = append(kept, w)
			case now >= e && w.Active:
				cpu, ram, disk, bw := w.Deactivate()
				c.CurrentCPUUsage -= cpu
				c.CurrentRAMUsage -= ram
				c.CurrentDiskUsage -= disk
				c.CurrentBWUsage -= bw
				delete(c.admitted, w.ID)
			case w.Active:
				c.CurrentCPUUsage += w.CurrentCPUJitter(rng)
				c.CurrentRAMUsage += w.CurrentRAMJitter(rng)
				c.CurrentDiskUsage += w.CurrentDiskJitter(rng)
				c.CurrentBWUsage += w.CurrentBWJitter(rng)
				kept = append(kept, w)
			default:
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			delete(c.workloads, t)
		} else {
			c.workloads[t] = kept
		}
	}

	c.CurrentCPUUsage += units.Round2(simrand.UniformFloat(rng, -c.CPU*c.JitterCPU/100, c.CPU*c.JitterCPU/100))
	c.CurrentRAMUsage += simrand.UniformInt(rng, -int(float64(c.RAM)*c.JitterRAM/100), int(float64(c.RAM)*c.JitterRAM/100))
	c.CurrentDiskUsage += simrand.UniformInt(rng, -int(float64(c.Disk)*c.JitterDisk/100), int(float64(c.Disk)*c.JitterDisk/100))
	c.CurrentBWUsage += simrand.UniformInt(rng, -int(float64(c.BW)*c.JitterBW/100), int(float64(c.BW)*c.JitterBW/100))

	c.CurrentCPUUsage = units.ClampFloat(c.CurrentCPUUsage)
	c.CurrentRAMUsage = units.ClampInt(c.CurrentRAMUsage)
	c.CurrentDiskUsage = units.ClampInt(c.CurrentDiskUsage)
	c.CurrentBWUsage = units.ClampInt(c.CurrentBWUsage)

	c.History.Append(now, c.CurrentCPUUsage, c.CurrentRAMUsage, c.CurrentDiskUsage, c.CurrentBWUsage)
}

// Stop subtracts every still-active workload's activation sample, zeroes
// usage, and marks the container no longer running. Safe to call more than
// once; a stopped container no-ops.
func (c *Container) Stop() {
	if !c.Running {
		return
	}
	for _, bucket := range c.workloads {
		for _, w := range bucket {
			if w.HasActivationSample() {
				w.Deactivate()
			}
		}
	}
	c.CurrentCPUUsage = 0
	c.CurrentRAMUsage = 0
	c.CurrentDiskUsage = 0
	c.CurrentBWUsage = 0
	c.Running = false
}

// AvailableCPU returns the headroom between base CPU capacity and current usage.
func (c *Container) AvailableCPU() float64 {
	return units.ClampFloat(c.CPU - c.CurrentCPUUsage)
}

// AvailableRAM returns the headroom between base RAM capacity and current usage.
func (c *Container) AvailableRAM() int {
	return units.ClampInt(c.RAM - c.CurrentRAMUsage)
}

// AvailableDisk returns the headroom between base Disk capacity and current usage.
func (c *Container) AvailableDisk() int {
	return units.ClampInt(c.Disk - c.CurrentDiskUsage)
}

// AvailableBW returns the headroom between base Bandwidth capacity and current usage.
func (c *Container) AvailableBW() int {
	return units.ClampInt(c.BW - c.CurrentBWUsage)
}
