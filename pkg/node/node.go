// Package node implements the simulator's Node entity: a host that
// aggregates Containers, tracks a jittered availability envelope distinct
// from usage, and enforces capacity invariants on a periodic monitor tick.
package node

import (
	"fmt"
	"log"

	"github.com/fabricsim/fabricsim/pkg/clock"
	"github.com/fabricsim/fabricsim/pkg/container"
	"github.com/fabricsim/fabricsim/pkg/simrand"
	"github.com/fabricsim/fabricsim/pkg/units"
)

const monitorPeriod = 2

// CapacityExhaustedError reports that a node's summed container demand
// exceeded its jittered availability for one dimension at a monitor tick.
type CapacityExhaustedError struct {
	Node      string
	Dimension string
	Time      float64
	Required  float64
	Available float64
}

func (e *CapacityExhaustedError) Error() string {
	return fmt.Sprintf("node %q: capacity exhausted at t=%.2f: %s required=%.2f available=%.2f",
		e.Node, e.Time, e.Dimension, e.Required, e.Available)
}

// Spec is the construction-time description of a Node.
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

	StartUpDelay       float64
	StopLackOfResource bool

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

// History is the node's eleven aligned per-monitor-tick sequences: four used
// dimensions, four available dimensions, CPU usage velocity/acceleration,
// and time.
type History struct {
	UsedCPU  []float64
	UsedRAM  []int
	UsedDisk []int
	UsedBW   []int

	AvailableCPU  []float64
	AvailableRAM  []int
	AvailableDisk []int
	AvailableBW   []int

	// CPUVelocity and CPUAcceleration are EWMA-smoothed diagnostics over
	// UsedCPU. They are an observation-surface overlay only: nothing in the
	// admission, placement, or capacity-enforcement invariants reads them.
	CPUVelocity     []float64
	CPUAcceleration []float64

	Time []float64
}

func (h *History) append(now float64, usedCPU, availCPU float64, usedRAM, availRAM, usedDisk, availDisk, usedBW, availBW int, trend units.Sample) {
	h.UsedCPU = append(h.UsedCPU, usedCPU)
	h.UsedRAM = append(h.UsedRAM, usedRAM)
	h.UsedDisk = append(h.UsedDisk, usedDisk)
	h.UsedBW = append(h.UsedBW, usedBW)
	h.AvailableCPU = append(h.AvailableCPU, availCPU)
	h.AvailableRAM = append(h.AvailableRAM, availRAM)
	h.AvailableDisk = append(h.AvailableDisk, availDisk)
	h.AvailableBW = append(h.AvailableBW, availBW)
	h.CPUVelocity = append(h.CPUVelocity, trend.Velocity)
	h.CPUAcceleration = append(h.CPUAcceleration, trend.Acceleration)
	h.Time = append(h.Time, now)
}

// Len returns the common length of the aligned buffers.
func (h *History) Len() int {
	return len(h.Time)
}

// Node aggregates Containers and enforces capacity invariants.
type Node struct {
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

	StartUpDelay       float64
	StopLackOfResource bool

	Running bool

	Containers []*container.Container

	History *History
	Logger  *log.Logger

	// OnCapacityExhausted, if set, is invoked (in addition to the default
	// log diagnostic) whenever a monitor tick observes exhaustion, letting
	// a caller (e.g. internal/runner) surface the event without the core
	// itself depending on any reporting collaborator.
	OnCapacityExhausted func(*CapacityExhaustedError)

	availCPU  float64
	availRAM  int
	availDisk int
	availBW   int
	haveAvail bool

	cpuTrend *units.Trend
}

// New validates spec and constructs a Node with the next id from ids.
func New(ids *units.IDSequence, spec Spec) (*Node, error) {
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid node spec: %w", err)
	}
	logger := spec.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Node{
		ID:                 ids.Next(),
		Name:               spec.Name,
		CPU:                spec.CPU,
		RAM:                spec.RAM,
		Disk:               spec.Disk,
		BW:                 spec.BW,
		JitterCPU:          spec.JitterCPU,
		JitterRAM:          spec.JitterRAM,
		JitterDisk:         spec.JitterDisk,
		JitterBW:           spec.JitterBW,
		StartUpDelay:       spec.StartUpDelay,
		StopLackOfResource: spec.StopLackOfResource,
		History:            &History{},
		Logger:             logger,
		cpuTrend:           units.NewTrend(),
	}, nil
}

// AddContainer appends c to the node's ordered container list.
func (n *Node) AddContainer(c *container.Container) {
	n.Containers = append(n.Containers, c)
}

// AvailableCPU consults the last recorded envelope sample (falling back to
// base capacity before the first monitor tick) and subtracts current
// summed container usage, clamped to >= 0.
func (n *Node) AvailableCPU() float64 {
	base := n.CPU
	if n.haveAvail {
		base = n.availCPU
	}
	return units.ClampFloat(base - n.totalCPUUsage())
}

// AvailableRAM mirrors AvailableCPU for the RAM dimension.
func (n *Node) AvailableRAM() int {
	base := n.RAM
	if n.haveAvail {
		base = n.availRAM
	}
	return units.ClampInt(base - n.totalRAMUsage())
}

// AvailableDisk mirrors AvailableCPU for the Disk dimension.
func (n *Node) AvailableDisk() int {
	base := n.Disk
	if n.haveAvail {
		base = n.availDisk
	}
	return units.ClampInt(base - n.totalDiskUsage())
}

// AvailableBW mirrors AvailableCPU for the Bandwidth dimension.
func (n *Node) AvailableBW() int {
	base := n.BW
	if n.haveAvail {
		base = n.availBW
	}
	return units.ClampInt(base - n.totalBWUsage())
}

func (n *Node) totalCPUUsage() float64 {
	var total float64
	for _, c := range n.Containers {
		total += c.CurrentCPUUsage
	}
	return total
}

func (n *Node) totalRAMUsage() int {
	var total int
	for _, c := range n.Containers {
		total += c.CurrentRAMUsage
	}
	return total
}

func (n *Node) totalDiskUsage() int {
	var total int
	for _, c := range n.Containers {
		total += c.CurrentDiskUsage
	}
	return total
}

func (n *Node) totalBWUsage() int {
	var total int
	for _, c := range n.Containers {
		total += c.CurrentBWUsage
	}
	return total
}

// StartStep returns the engine process that pre-checks initial demand,
// waits StartUpDelay, then marks the node running.
//
// It no longer schedules its containers' start/run processes: those are
// independent processes in their own right, each ticking its own
// construction-relative grid (0, 1, 2, ...) from the moment the engine
// starts, not from whenever this node's own start-up delay happens to
// elapse. Nesting that scheduling here previously anchored every
// container's (and the node's own monitor's) per-unit tick grid at
// n.StartUpDelay instead of absolute time zero, silently shifting every
// scenario's activation/deactivation boundaries by that delay. The caller
// (internal/runner.Run) now schedules containers and the node's own
// RunStep directly, once, alongside this process, matching
// original_source/src/container_simulation/container.go's
// construction-time-independent process start.
func (n *Node) StartStep() clock.Step {
	started := false
	var step clock.Step
	step = func(now float64) (float64, bool) {
		if !started {
			started = true
			if n.totalCPUUsage() > n.CPU {
				n.Logger.Printf("node %s: initial CPU demand %.2f exceeds capacity %.2f", n.Name, n.totalCPUUsage(), n.CPU)
			}
			return n.StartUpDelay, true
		}
		n.Running = true
		return 0, false
	}
	return step
}

// RunStep returns the engine process that ticks once per virtual-time unit,
// starting at the instant it is scheduled, while the node is running,
// driving the monitor logic on its own monitorPeriod cadence from inside
// the same process rather than as a second independently-scheduled
// process. Before n.Running flips true (i.e. before StartStep's delay
// elapses) each tick is a no-op, matching the containers' own
// "not running yet" cancellation model. The original spawned a fresh
// monitor process off the tick loop; doing that here would let the
// monitor's and the containers' independent reschedule chains drift
// relative to each other in the engine's tie-break ordering, occasionally
// letting a monitor tick observe container usage one tick stale — folding
// the cadence into this single process keeps it strictly ordered after
// every container process registered ahead of it at construction time,
// satisfying the "containers update before node monitor reads" rule.
func (n *Node) RunStep(rng simrand.Source) clock.Step {
	var nextMonitor float64
	initialized := false
	return func(now float64) (float64, bool) {
		if !n.Running {
			return 1, true
		}
		if !initialized {
			nextMonitor = now
			initialized = true
		}
		if now >= nextMonitor {
			nextMonitor += monitorPeriod
			if halted := n.monitorTick(now, rng); halted {
				return 0, false
			}
		}
		return 1, true
	}
}

// monitorTick refreshes the availability envelope, records history, and
// enforces the capacity invariant for one monitor tick. It returns true if
// the node halted as a result.
func (n *Node) monitorTick(now float64, rng simrand.Source) bool {
	n.availCPU = units.ClampFloatUpper(n.CPU+simrand.UniformFloat(rng, -n.CPU*n.JitterCPU/100, n.CPU*n.JitterCPU/100), n.CPU)
	n.availRAM = units.ClampIntUpper(n.RAM+simrand.UniformInt(rng, -int(float64(n.RAM)*n.JitterRAM/100), int(float64(n.RAM)*n.JitterRAM/100)), n.RAM)
	n.availDisk = units.ClampIntUpper(n.Disk+simrand.UniformInt(rng, -int(float64(n.Disk)*n.JitterDisk/100), int(float64(n.Disk)*n.JitterDisk/100)), n.Disk)
	n.availBW = units.ClampIntUpper(n.BW+simrand.UniformInt(rng, -int(float64(n.BW)*n.JitterBW/100), int(float64(n.BW)*n.JitterBW/100)), n.BW)
	n.haveAvail = true

	usedCPU, usedRAM, usedDisk, usedBW := n.totalCPUUsage(), n.totalRAMUsage(), n.totalDiskUsage(), n.totalBWUsage()
	trend := n.cpuTrend.Update(now, usedCPU)
	n.History.append(now, usedCPU, n.availCPU, usedRAM, n.availRAM, usedDisk, n.availDisk, usedBW, n.availBW, trend)

	var violation *CapacityExhaustedError
	switch {
	case usedCPU > n.availCPU:
		violation = &CapacityExhaustedError{Node: n.Name, Dimension: "cpu", Time: now, Required: usedCPU, Available: n.availCPU}
	case float64(usedRAM) > float64(n.availRAM):
		violation = &CapacityExhaustedError{Node: n.Name, Dimension: "ram", Time: now, Required: float64(usedRAM), Available: float64(n.availRAM)}
	case float64(usedDisk) > float64(n.availDisk):
		violation = &CapacityExhaustedError{Node: n.Name, Dimension: "disk", Time: now, Required: float64(usedDisk), Available: float64(n.availDisk)}
	case float64(usedBW) > float64(n.availBW):
		violation = &CapacityExhaustedError{Node: n.Name, Dimension: "bw", Time: now, Required: float64(usedBW), Available: float64(n.availBW)}
	}

	if violation == nil {
		return false
	}

	n.Logger.Printf("%v", violation)
	if n.OnCapacityExhausted != nil {
		n.OnCapacityExhausted(violation)
	}
	if !n.StopLackOfResource {
		return false
	}
	n.Stop()
	return true
}

// Stop halts the node and every one of its containers. Irreversible: the
// node's Running flag never turns back on.
func (n *Node) Stop() {
	n.Running = false
	for _, c := range n.Containers {
		c.Stop()
	}
}
