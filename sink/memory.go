package sink

// Memory collects batches in memory, preserving arrival order. Meant for
// tests and benchmarks; like every sink it assumes a single writer.
type Memory[V any] struct {
	batches [][]V
	total   int
}

// Append records one batch.
func (m *Memory[V]) Append(values []V) error {
	cp := make([]V, len(values))
	copy(cp, values)
	m.batches = append(m.batches, cp)
	m.total += len(values)
	return nil
}

// Batches returns the recorded batches in arrival order.
func (m *Memory[V]) Batches() [][]V { return m.batches }

// Len returns the total number of values across all batches.
func (m *Memory[V]) Len() int { return m.total }

// Values returns all recorded values flattened in arrival order.
func (m *Memory[V]) Values() []V {
	out := make([]V, 0, m.total)
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}
