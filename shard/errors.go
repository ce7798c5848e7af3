package shard

import "fmt"

// ErrDimensionMismatch indicates an item or query whose embedding
// dimension differs from the shard's established dimension.
//
// Silent similarity over mismatched dimensions produces garbage scores,
// so this is rejected fast instead.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
