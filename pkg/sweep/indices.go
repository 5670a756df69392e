package sweep

import (
	"fmt"
	"math"
)

// Params describes the checkpoint index progression and failure policy
type Params struct {
	Start  int
	Step   int
	End    int
	Strict bool
}

// Indices returns {start, start+step, ..., last <= end} in ascending order.
// The result is empty when end < start.
func Indices(start, step, end int) ([]int, error) {
	if start <= 0 {
		return nil, fmt.Errorf("start must be positive, got %d", start)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", step)
	}
	if end < start {
		return []int{}, nil
	}

	indices := make([]int, 0, (end-start)/step+1)
	for i := start; i <= end; i += step {
		indices = append(indices, i)
		if i > math.MaxInt-step {
			break
		}
	}
	return indices, nil
}

// Indices returns the index sequence for p
func (p Params) Indices() ([]int, error) {
	return Indices(p.Start, p.Step, p.End)
}
