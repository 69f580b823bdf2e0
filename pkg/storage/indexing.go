package storage

import (
	"bytes"
	"hash/fnv"
	"sort"
)

// Index maps each signal-id to the positions of its rows in the table
type Index struct {
	// Signal-ids in first-seen order
	order []string
	// Inverted index: signal-id -> row positions, ascending
	rows map[string][]int
}

// NewIndex creates a new index
func NewIndex() *Index {
	return &Index{
		rows: make(map[string][]int),
	}
}

// Add records that row pos belongs to signal
func (idx *Index) Add(signal string, pos int) {
	if _, exists := idx.rows[signal]; !exists {
		idx.order = append(idx.order, signal)
	}
	idx.rows[signal] = append(idx.rows[signal], pos)
}

// Rows returns the row positions of a signal. The slice must not be modified.
func (idx *Index) Rows(signal string) []int {
	return idx.rows[signal]
}

// Signals returns the indexed signal-ids in first-seen order
func (idx *Index) Signals() []string {
	return append([]string(nil), idx.order...)
}

// SignalCount returns the number of indexed signals
func (idx *Index) SignalCount() int {
	return len(idx.order)
}

// fingerprint hashes an interest set independently of its order
func fingerprint(signals []string) uint64 {
	keys := append([]string(nil), signals...)
	sort.Strings(keys)

	buf := new(bytes.Buffer)
	for i, k := range keys {
		if i > 0 && keys[i-1] == k {
			continue
		}
		buf.WriteString(k)
		buf.WriteByte(0)
	}

	return hashBytes(buf.Bytes())
}

// hashBytes computes an FNV-1a hash of data
func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}
