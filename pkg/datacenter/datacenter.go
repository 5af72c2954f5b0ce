// Package datacenter implements the simulator's passive DataCenter
// aggregate: a named, ordered collection of Nodes with no per-tick
// behavior of its own.
package datacenter

import "github.com/fabricsim/fabricsim/pkg/node"

// DataCenter is a named ordered collection of Nodes.
type DataCenter struct {
	Name  string
	Nodes []*node.Node
}

// New constructs an empty DataCenter.
func New(name string) *DataCenter {
	return &DataCenter{Name: name}
}

// AddNode appends n to the data center's ordered node list.
func (dc *DataCenter) AddNode(n *node.Node) {
	dc.Nodes = append(dc.Nodes, n)
}

// ContainerSummary is one container's reporting tuple: name and base
// capacity per dimension.
type ContainerSummary struct {
	Name string
	CPU  float64
	RAM  int
	Disk int
	BW   int
}

// NodeSummary is one node's reporting tuple: name, base and available
// capacity per dimension, and its containers' summaries.
type NodeSummary struct {
	Name string

	BaseCPU  float64
	BaseRAM  int
	BaseDisk int
	BaseBW   int

	AvailableCPU  float64
	AvailableRAM  int
	AvailableDisk int
	AvailableBW   int

	Containers []ContainerSummary
}

// Summary is the data center's reporting tuple, consumed by the
// observation surface's reporting collaborators.
type Summary struct {
	Name  string
	Nodes []NodeSummary
}

// Summarize builds the DataCenter summary tuple described by the
// observation surface: name, and per-node base/available capacities plus
// each node's containers' base capacities.
func (dc *DataCenter) Summarize() Summary {
	s := Summary{Name: dc.Name}
	for _, n := range dc.Nodes {
		ns := NodeSummary{
			Name:          n.Name,
			BaseCPU:       n.CPU,
			BaseRAM:       n.RAM,
			BaseDisk:      n.Disk,
			BaseBW:        n.BW,
			AvailableCPU:  n.AvailableCPU(),
			AvailableRAM:  n.AvailableRAM(),
			AvailableDisk: n.AvailableDisk(),
			AvailableBW:   n.AvailableBW(),
		}
		for _, c := range n.Containers {
			ns.Containers = append(ns.Containers, ContainerSummary{
				Name: c.Name,
				CPU:  c.CPU,
				RAM:  c.RAM,
				Disk: c.Disk,
				BW:   c.BW,
			})
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s
}
