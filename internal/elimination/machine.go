// Package elimination enforces the elimination workflow's state machine:
// every block is either Active or Eliminating, and at most one block across
// the user's full set may be Eliminating at a time.
//
// The guard runs locally for immediate feedback; the backend re-validates on
// persist because local state can be stale relative to other sessions.
package elimination

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
)

var (
	// ErrAlreadyEliminating refuses a second simultaneous elimination. It is
	// a non-fatal conflict surfaced as a warning, not an application error.
	ErrAlreadyEliminating = errors.New("only one feeding block may be eliminated at a time")

	// ErrNotEliminating reports SetEliminationStart on an Active block. That
	// is a programming error and is never silently ignored.
	ErrNotEliminating = errors.New("block is not in the eliminating state")

	ErrBlockNotFound = errors.New("feeding block not found")
)

// RequestEliminate checks whether blockID may transition Active ->
// Eliminating given the current block set. It returns nil when the
// transition is allowed, ErrAlreadyEliminating when any block (including the
// target) is already eliminating, and ErrBlockNotFound for an unknown id.
// The block set is not modified; persisting the flag is the caller's job.
func RequestEliminate(blocks []model.FeedingBlock, blockID string) error {
	var target *model.FeedingBlock
	for i := range blocks {
		if blocks[i].IsEliminating {
			return ErrAlreadyEliminating
		}
		if blocks[i].ID == blockID {
			target = &blocks[i]
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	return nil
}

// SetEliminationStart records the baseline volume and start instant on an
// Eliminating block. Subsequent target volumes decrease relative to the
// baseline; that algorithm lives server-side.
func SetEliminationStart(block *model.FeedingBlock, volume float64, at time.Time) error {
	if block == nil {
		return ErrBlockNotFound
	}
	if !block.IsEliminating {
		return fmt.Errorf("%w: %s", ErrNotEliminating, block.ID)
	}
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return fmt.Errorf("baseline volume must be a finite non-negative number, got %v", volume)
	}
	if at.IsZero() {
		return fmt.Errorf("elimination start date is required")
	}
	block.BaselineVolume = &volume
	start := at
	block.EliminationStartDate = &start
	return nil
}

// EliminatingBlock returns the block currently being eliminated, if any.
func EliminatingBlock(blocks []model.FeedingBlock) (model.FeedingBlock, bool) {
	for _, b := range blocks {
		if b.IsEliminating {
			return b, true
		}
	}
	return model.FeedingBlock{}, false
}
