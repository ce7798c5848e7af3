package vecmesh

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecmesh/shard"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrCapacityExhausted is returned when insert routing cannot find or
	// create a shard: every shard is saturated and the shard ceiling is
	// reached.
	ErrCapacityExhausted = errors.New("all shards saturated and shard ceiling reached")

	// ErrNoPersistence is returned by operations that require a configured
	// blob store (Open, Snapshot) when the store is memory-only.
	ErrNoPersistence = errors.New("no blob store configured")
)

// ErrDimensionMismatch indicates an item or query embedding whose
// dimensionality differs from the store's established dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *shard.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
