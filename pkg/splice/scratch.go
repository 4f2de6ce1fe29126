package splice

// scratch keeps working buffers alive between splice calls.
type scratch struct {
	bufs [4][]float32
}

// floats returns slot's buffer resized to n and zeroed.
func (s *scratch) floats(slot, n int) []float32 {
	b := s.bufs[slot]
	if cap(b) < n {
		b = make([]float32, n)
	}
	b = b[:n]
	clear(b)
	s.bufs[slot] = b
	return b
}

// Scratch slots. A splicer may use any slot; passes never overlap.
const (
	slotMain = iota
	slotAux
	slotSum
	slotTile
)
