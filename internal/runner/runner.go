// Package runner orchestrates the configuration loader, the discrete-event
// engine, and the optional history recorder into one simulation
// invocation — the Go analogue of a simulation-runner collaborator that
// only ever touches the core through its public construction and
// observation surface.
package runner

import (
	"fmt"
	"log"

	"github.com/fabricsim/fabricsim/internal/config"
	"github.com/fabricsim/fabricsim/internal/store"
	"github.com/fabricsim/fabricsim/pkg/clock"
	"github.com/fabricsim/fabricsim/pkg/container"
	"github.com/fabricsim/fabricsim/pkg/datacenter"
	"github.com/fabricsim/fabricsim/pkg/placer"
	"github.com/fabricsim/fabricsim/pkg/simrand"
	"github.com/fabricsim/fabricsim/pkg/units"
	"github.com/fabricsim/fabricsim/pkg/workload"
)

// MisconfiguredRunError reports that Run was invoked without a usable
// data center attached.
type MisconfiguredRunError struct {
	Reason string
}

func (e *MisconfiguredRunError) Error() string {
	return fmt.Sprintf("misconfigured run: %s", e.Reason)
}

// Result is what a completed (or aborted) Run produces.
type Result struct {
	DataCenter *datacenter.DataCenter
	Summary    datacenter.Summary
	RunID      string
}

// Options controls one Run invocation.
type Options struct {
	ConfigPath string
	DBPath     string // empty disables recording
	Seed       int64
	Logger     *log.Logger
}

// Run loads cfg, places any load-balancer workloads, advances the engine
// to the configured horizon, and optionally records history to a store.
func Run(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	nodeIDs := units.NewIDSequence()
	containerIDs := units.NewIDSequence()
	workloadIDs := units.NewIDSequence()

	dc, byName, err := config.Build(cfg, nodeIDs, containerIDs, workloadIDs)
	if err != nil {
		return nil, err
	}
	if dc == nil || len(dc.Nodes) == 0 {
		return nil, &MisconfiguredRunError{Reason: "no data center attached"}
	}

	if cfg.LoadBalancer != nil && cfg.LoadBalancer.Enabled {
		if err := placeLoadBalancerWorkloads(cfg.LoadBalancer, byName, workloadIDs); err != nil {
			return nil, err
		}
	}

	rng := simrand.New(opts.Seed)
	eng := clock.New()
	for _, n := range dc.Nodes {
		n.Logger = logger
		eng.Schedule(n.StartStep())
		for _, c := range n.Containers {
			eng.Schedule(c.StartStep())
			eng.Schedule(c.RunStep(rng))
		}
		eng.Schedule(n.RunStep(rng))
	}

	eng.AdvanceUntil(cfg.Simulation.Duration)

	result := &Result{DataCenter: dc, Summary: dc.Summarize()}

	if opts.DBPath != "" {
		st, err := store.Open(opts.DBPath)
		if err != nil {
			return result, err
		}
		defer st.Close()

		runID, err := st.BeginRun(dc.Name, cfg.Simulation.Duration)
		if err != nil {
			return result, err
		}
		if err := st.RecordDataCenter(runID, dc); err != nil {
			return result, err
		}
		if err := st.CompleteRun(runID); err != nil {
			return result, err
		}
		result.RunID = runID
	}

	return result, nil
}

func placeLoadBalancerWorkloads(lb *config.LoadBalancerConfig, byName map[string]*container.Container, workloadIDs *units.IDSequence) error {
	targets := make([]*container.Container, 0, len(lb.TargetContainers))
	for _, name := range lb.TargetContainers {
		c, ok := byName[name]
		if !ok {
			return fmt.Errorf("load balancer target container %q not found", name)
		}
		targets = append(targets, c)
	}

	workloads := make([]*workload.Workload, 0, len(lb.Workloads))
	for _, wc := range lb.Workloads {
		w, err := workload.New(workloadIDs, wc.ToSpec())
		if err != nil {
			return fmt.Errorf("building load balancer workload: %w", err)
		}
		workloads = append(workloads, w)
	}

	useReservations := lb.ReservationEnabled != nil && *lb.ReservationEnabled

	_, err := placer.Place(workloads, targets, useReservations, 0)
	return err
}
