package features

import (
	"fmt"

	"github.com/okian/draftnexus/internal/domain/hero"
)

// Batch is a row-major [Rows, Cols] float32 matrix. Row i belongs to the
// i-th candidate passed to BuildBatch.
type Batch struct {
	Data []float32
	Rows int
	Cols int
}

// Shape returns the tensor shape of the batch.
func (b Batch) Shape() [2]int64 { return [2]int64{int64(b.Rows), int64(b.Cols)} }

// Row returns a view of row i.
func (b Batch) Row(i int) []float32 {
	return b.Data[i*b.Cols : (i+1)*b.Cols]
}

// BuildBatch encodes every candidate against the same teams into one
// contiguous buffer. An empty candidate list returns ErrEmptyBatch.
func BuildBatch(allies, enemies []*hero.Hero, candidates []hero.Hero) (Batch, error) {
	if len(allies) > MaxSlots || len(enemies) > MaxSlots {
		return Batch{}, fmt.Errorf("%w: %d allies, %d enemies", ErrSlotCount, len(allies), len(enemies))
	}
	if len(candidates) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	b := Batch{
		Data: make([]float32, len(candidates)*VectorLen),
		Rows: len(candidates),
		Cols: VectorLen,
	}

	// Team sections are identical for every row; encode them once.
	base := Encode(allies, enemies, hero.Hero{})
	for i, c := range candidates {
		row := b.Row(i)
		copy(row, base[:StatsOffset])
		copy(row[StatsOffset:], c.Stats[:])
	}
	return b, nil
}
