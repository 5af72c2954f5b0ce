// Package config loads simulation construction-API inputs from a YAML
// document, the external collaborator described in the specification's
// configuration-loading scope.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fabricsim/fabricsim/pkg/container"
	"github.com/fabricsim/fabricsim/pkg/datacenter"
	"github.com/fabricsim/fabricsim/pkg/node"
	"github.com/fabricsim/fabricsim/pkg/units"
	"github.com/fabricsim/fabricsim/pkg/workload"
)

// WorkloadConfig is the decoded shape of one workload entry.
type WorkloadConfig struct {
	CPU                        float64 `yaml:"cpu" validate:"gte=0"`
	RAM                        int     `yaml:"ram" validate:"gte=0"`
	Disk                       int     `yaml:"disk" validate:"gte=0"`
	Bandwidth                  int     `yaml:"bandwidth" validate:"gte=0"`
	Delay                      float64 `yaml:"delay" validate:"gte=0"`
	Duration                   float64 `yaml:"duration" validate:"gt=0"`
	CPUSaturationPercent       float64 `yaml:"cpu_saturation_percent" validate:"gte=0,lte=100"`
	RAMSaturationPercent       float64 `yaml:"ram_saturation_percent" validate:"gte=0,lte=100"`
	DiskSaturationPercent      float64 `yaml:"disk_saturation_percent" validate:"gte=0,lte=100"`
	BandwidthSaturationPercent float64 `yaml:"bandwidth_saturation_percent" validate:"gte=0,lte=100"`
	Priority                   *int    `yaml:"priority"`
	Type                       *string `yaml:"type"`
}

func (w WorkloadConfig) ToSpec() workload.Spec {
	return workload.Spec{
		CPU:        w.CPU,
		RAM:        w.RAM,
		Disk:       w.Disk,
		BW:         w.Bandwidth,
		Delay:      w.Delay,
		Duration:   w.Duration,
		JitterCPU:  w.CPUSaturationPercent,
		JitterRAM:  w.RAMSaturationPercent,
		JitterDisk: w.DiskSaturationPercent,
		JitterBW:   w.BandwidthSaturationPercent,
		Priority:   w.Priority,
		Type:       w.Type,
	}
}

// ContainerConfig is the decoded shape of one container entry.
type ContainerConfig struct {
	Name                       string           `yaml:"name" validate:"required"`
	CPU                        float64          `yaml:"cpu" validate:"gte=0"`
	RAM                        int              `yaml:"ram" validate:"gte=0"`
	Disk                       int              `yaml:"disk" validate:"gte=0"`
	Bandwidth                  int              `yaml:"bandwidth" validate:"gte=0"`
	StartUpDelay               float64          `yaml:"start_up_delay" validate:"gte=0"`
	CPUSaturationPercent       float64          `yaml:"cpu_saturation_percent" validate:"gte=0,lte=100"`
	RAMSaturationPercent       float64          `yaml:"ram_saturation_percent" validate:"gte=0,lte=100"`
	DiskSaturationPercent      float64          `yaml:"disk_saturation_percent" validate:"gte=0,lte=100"`
	BandwidthSaturationPercent float64          `yaml:"bandwidth_saturation_percent" validate:"gte=0,lte=100"`
	Workloads                  []WorkloadConfig `yaml:"workloads" validate:"dive"`
}

// NodeConfig is the decoded shape of one node entry.
type NodeConfig struct {
	Name                       string            `yaml:"name" validate:"required"`
	CPU                        float64           `yaml:"cpu" validate:"gte=0"`
	RAM                        int               `yaml:"ram" validate:"gte=0"`
	Disk                       int               `yaml:"disk" validate:"gte=0"`
	Bandwidth                  int               `yaml:"bandwidth" validate:"gte=0"`
	StartUpDelay               float64           `yaml:"start_up_delay" validate:"gte=0"`
	StopLackOfResource         bool              `yaml:"stop_lack_of_resource"`
	CPUSaturationPercent       float64           `yaml:"cpu_saturation_percent" validate:"gte=0,lte=100"`
	RAMSaturationPercent       float64           `yaml:"ram_saturation_percent" validate:"gte=0,lte=100"`
	DiskSaturationPercent      float64           `yaml:"disk_saturation_percent" validate:"gte=0,lte=100"`
	BandwidthSaturationPercent float64           `yaml:"bandwidth_saturation_percent" validate:"gte=0,lte=100"`
	Containers                 []ContainerConfig `yaml:"containers" validate:"dive"`
}

// DataCenterConfig is the decoded shape of the datacenter block.
type DataCenterConfig struct {
	Name  string       `yaml:"name" validate:"required"`
	Nodes []NodeConfig `yaml:"nodes" validate:"dive"`
}

// LoadBalancerConfig is the decoded shape of the load_balancer block.
type LoadBalancerConfig struct {
	Enabled            bool             `yaml:"enabled"`
	Type               string           `yaml:"type" validate:"omitempty,eq=first-fit-with-reservations"`
	ReservationEnabled *bool            `yaml:"reservation_enabled"`
	TargetContainers   []string         `yaml:"target_containers"`
	Workloads          []WorkloadConfig `yaml:"workloads" validate:"dive"`
}

// SimulationConfig is the root of the YAML document.
type SimulationConfig struct {
	Simulation struct {
		Duration float64 `yaml:"duration" validate:"gt=0"`
	} `yaml:"simulation"`
	DataCenter   DataCenterConfig    `yaml:"datacenter" validate:"required"`
	LoadBalancer *LoadBalancerConfig `yaml:"load_balancer"`
}

var validate = validator.New()

// Load reads and validates a SimulationConfig from the YAML document at path.
func Load(path string) (*SimulationConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Build constructs a DataCenter (and its Nodes and Containers) from the
// decoded config, using nodeIDs, containerIDs and workloadIDs to number
// nodes, containers and workloads respectively. It returns the built DataCenter plus a lookup from
// container name to *container.Container, for the load balancer stage to
// resolve its target_containers list against.
func Build(cfg *SimulationConfig, nodeIDs, containerIDs, workloadIDs *units.IDSequence) (*datacenter.DataCenter, map[string]*container.Container, error) {
	dc := datacenter.New(cfg.DataCenter.Name)
	byName := make(map[string]*container.Container)

	for _, nc := range cfg.DataCenter.Nodes {
		n, err := node.New(nodeIDs, node.Spec{
			Name:               nc.Name,
			CPU:                nc.CPU,
			RAM:                nc.RAM,
			Disk:               nc.Disk,
			BW:                 nc.Bandwidth,
			JitterCPU:          nc.CPUSaturationPercent,
			JitterRAM:          nc.RAMSaturationPercent,
			JitterDisk:         nc.DiskSaturationPercent,
			JitterBW:           nc.BandwidthSaturationPercent,
			StartUpDelay:       nc.StartUpDelay,
			StopLackOfResource: nc.StopLackOfResource,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("building node %q: %w", nc.Name, err)
		}

		for _, cc := range nc.Containers {
			wspecs := make([]workload.Spec, 0, len(cc.Workloads))
			for _, wc := range cc.Workloads {
				wspecs = append(wspecs, wc.ToSpec())
			}
			c, err := container.New(containerIDs, workloadIDs, container.Spec{
				Name:         cc.Name,
				CPU:          cc.CPU,
				RAM:          cc.RAM,
				Disk:         cc.Disk,
				BW:           cc.Bandwidth,
				JitterCPU:    cc.CPUSaturationPercent,
				JitterRAM:    cc.RAMSaturationPercent,
				JitterDisk:   cc.DiskSaturationPercent,
				JitterBW:     cc.BandwidthSaturationPercent,
				StartUpDelay: cc.StartUpDelay,
				Workloads:    wspecs,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("building container %q on node %q: %w", cc.Name, nc.Name, err)
			}
			if _, dup := byName[c.Name]; dup {
				return nil, nil, fmt.Errorf("duplicate container name %q", c.Name)
			}
			byName[c.Name] = c
			n.AddContainer(c)
		}

		dc.AddNode(n)
	}

	return dc, byName, nil
}
