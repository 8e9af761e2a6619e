package marker

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MemoryMarker keeps marks in a slice.
type MemoryMarker struct {
	mu    sync.Mutex
	marks []types.Mark
}

func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{}
}

func (m *MemoryMarker) Mark(mark types.Mark) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.marks = append(m.marks, mark)

	return nil
}

func (m *MemoryMarker) Marks() ([]types.Mark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.marks), nil
}
