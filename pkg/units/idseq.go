package units

// IDSequence hands out unique, strictly increasing integer identifiers for
// one entity class (workloads, containers, or nodes). Each class owns its
// own IDSequence instance — ids are never shared across classes and there
// is no package-level counter, so independent simulations never interfere
// with each other's id numbering.
type IDSequence struct {
	next int64
}

// NewIDSequence starts a fresh sequence at zero.
func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

// Next returns the next id in creation order, starting at 0.
func (s *IDSequence) Next() int64 {
	id := s.next
	s.next++
	return id
}
