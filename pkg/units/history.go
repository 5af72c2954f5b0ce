package units

// History accumulates one entity's per-tick resource samples alongside the
// virtual time each sample was taken at. Every Append call must add exactly
// one value to each dimension slice and one timestamp, so the slices stay
// aligned by construction (the alignment invariant tests check for).
type History struct {
	CPU  []float64
	RAM  []int
	Disk []int
	BW   []int
	Time []float64
}

// Append records one tick's usage sample.
func (h *History) Append(now float64, cpu float64, ram, disk, bw int) {
	h.CPU = append(h.CPU, cpu)
	h.RAM = append(h.RAM, ram)
	h.Disk = append(h.Disk, disk)
	h.BW = append(h.BW, bw)
	h.Time = append(h.Time, now)
}

// Len returns the common length of the aligned buffers.
func (h *History) Len() int {
	return len(h.Time)
}
