// Package placer implements First-Fit-with-Reservations: a one-shot bulk
// assignment of Workloads onto Containers under optional forward-simulated
// capacity forecasting.
//
// Known ambiguity, deliberately left unresolved: the forecast below is
// indexed by ticks relative to each workload's own delay/duration (starting
// at 0), not by absolute admission time. If workloads are placed at
// different non-zero engine times, their forecast windows live in
// different absolute frames. This module keeps the workload-relative
// model rather than normalizing to absolute engine time, per the decision
// recorded in the design notes — it is an intentionally optimistic
// approximation, not a bug.
package placer

import (
	"fmt"
	"math"

	"github.com/fabricsim/fabricsim/pkg/container"
	"github.com/fabricsim/fabricsim/pkg/workload"
)

// PlacementInfeasibleError reports that no candidate container could
// accommodate a workload; it aborts the whole batch.
type PlacementInfeasibleError struct {
	WorkloadType *string
	Delay        float64
}

func (e *PlacementInfeasibleError) Error() string {
	t := "<untyped>"
	if e.WorkloadType != nil {
		t = *e.WorkloadType
	}
	return fmt.Sprintf("placement infeasible: no container accommodates workload type=%s delay=%.2f", t, e.Delay)
}

type demand struct {
	cpu  float64
	ram  int
	disk int
	bw   int
}

// forecast accumulates reserved demand per container per integer tick,
// keyed by workload-relative time.
type forecast map[*container.Container]map[int]*demand

func (f forecast) bucket(c *container.Container, tick int) *demand {
	byTick, ok := f[c]
	if !ok {
		byTick = make(map[int]*demand)
		f[c] = byTick
	}
	d, ok := byTick[tick]
	if !ok {
		d = &demand{}
		byTick[tick] = d
	}
	return d
}

// Assignment records which container a workload was placed on.
type Assignment struct {
	Workload  *workload.Workload
	Container *container.Container
}

// Place runs First-Fit-with-Reservations over workloads against
// candidates in order, admitting each assigned workload to its container
// at admissionTime. It returns one Assignment per workload, in input
// order, or the first PlacementInfeasibleError encountered, which aborts
// the whole batch (no partial admission of the failing workload, though
// earlier workloads in the batch remain admitted as already committed).
func Place(workloads []*workload.Workload, candidates []*container.Container, useReservations bool, admissionTime float64) ([]Assignment, error) {
	f := make(forecast)
	assignments := make([]Assignment, 0, len(workloads))

	for _, w := range workloads {
		s := w.Delay
		e := s + w.Duration
		lo := int(math.Floor(s))
		hi := int(math.Floor(e))

		var chosen *container.Container
		for _, c := range candidates {
			if useReservations {
				if feasibleWithReservations(f, c, w, lo, hi) {
					chosen = c
					break
				}
				continue
			}
			if w.CPU <= c.AvailableCPU() && w.RAM <= c.AvailableRAM() && w.Disk <= c.AvailableDisk() && w.BW <= c.AvailableBW() {
				chosen = c
				break
			}
		}

		if chosen == nil {
			return assignments, &PlacementInfeasibleError{WorkloadType: w.Type, Delay: w.Delay}
		}

		if useReservations {
			for tick := lo; tick <= hi; tick++ {
				d := f.bucket(chosen, tick)
				d.cpu += w.CPU
				d.ram += w.RAM
				d.disk += w.Disk
				d.bw += w.BW
			}
		}

		chosen.AddWorkload(admissionTime, w)
		assignments = append(assignments, Assignment{Workload: w, Container: chosen})
	}

	return assignments, nil
}

func feasibleWithReservations(f forecast, c *container.Container, w *workload.Workload, lo, hi int) bool {
	for tick := lo; tick <= hi; tick++ {
		var existing *demand
		if byTick, ok := f[c]; ok {
			existing = byTick[tick]
		}
		var cpu float64
		var ram, disk, bw int
		if existing != nil {
			cpu, ram, disk, bw = existing.cpu, existing.ram, existing.disk, existing.bw
		}
		if cpu+w.CPU > c.CPU || float64(ram+w.RAM) > float64(c.RAM) || float64(disk+w.Disk) > float64(c.Disk) || float64(bw+w.BW) > float64(c.BW) {
			return false
		}
	}
	return true
}
