package runner

import (
	"fmt"
	"io"

	"github.com/fabricsim/fabricsim/pkg/datacenter"
)

// PrintSummary writes a human-readable overview of s to w, in the spirit
// of the original simulator's end-of-run data center report.
func PrintSummary(w io.Writer, s datacenter.Summary) {
	fmt.Fprintln(w, "==========================================")
	fmt.Fprintf(w, " Datacenter: %s\n", s.Name)
	fmt.Fprintln(w, "==========================================")
	fmt.Fprintf(w, "Total Nodes: %d\n", len(s.Nodes))

	for _, n := range s.Nodes {
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, " Node: %s\n", n.Name)
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, " CPU: %.1f Cores | Available CPU: %.2f\n", n.BaseCPU, n.AvailableCPU)
		fmt.Fprintf(w, " RAM: %d MB  | Available RAM: %d\n", n.BaseRAM, n.AvailableRAM)
		fmt.Fprintf(w, " DISK: %d MB | Available Disk: %d\n", n.BaseDisk, n.AvailableDisk)
		fmt.Fprintf(w, " BW: %d Mbps | Available BW: %d\n", n.BaseBW, n.AvailableBW)
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintln(w, "   Containers:")
		fmt.Fprintln(w, "   ----------------------------------------")
		for _, c := range n.Containers {
			fmt.Fprintf(w, "   * %-18s | CPU: %.1f | RAM: %d MB | Disk: %d | BW: %d\n",
				c.Name, c.CPU, c.RAM, c.Disk, c.BW)
		}
	}
}
