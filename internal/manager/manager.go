// Package manager owns the authoritative in-memory copy of the current
// week's feeding blocks and mediates between the view-model builder, the
// elimination state machine, and the backend API.
//
// All errors from API calls are caught here: the worst case for any single
// failed operation is a recorded error plus an unchanged block set.
package manager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/calendar"
	"github.com/aubrey-sherman/baby-bootcamp/internal/elimination"
	"github.com/aubrey-sherman/baby-bootcamp/internal/logging"
	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

// APIClient is the collaborator contract the manager depends on. The wire
// client in internal/api satisfies it; tests substitute a fake.
type APIClient interface {
	GetUserBlocksWithEntries(ctx context.Context) ([]model.FeedingBlock, error)
	GetBlocksForWeek(ctx context.Context, weekStart, weekEnd time.Time) ([]model.FeedingBlock, error)
	CreateBlockWithEntries(ctx context.Context, isEliminating bool) (model.FeedingBlock, error)
	DeleteBlock(ctx context.Context, id string) (string, error)
	UpdateIsEliminating(ctx context.Context, isEliminating bool, blockID string) (model.FeedingBlock, error)
	SetStartDateForElimination(ctx context.Context, baselineVolume float64, blockID string, startDate time.Time) (model.FeedingBlock, error)
	UpdateTime(ctx context.Context, blockID string, newTime time.Time) (model.FeedingBlock, error)
	UpdateFeedingAmount(ctx context.Context, volumeInOunces float64, entryID string) (model.FeedingBlock, error)
}

// Direction selects week navigation.
type Direction int

const (
	Previous Direction = iota
	Next
)

var (
	ErrBlockNotFound = elimination.ErrBlockNotFound
	ErrEntryNotFound = errors.New("feeding entry not found")
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Manager orchestrates block state for one signed-in user. It is not safe
// for concurrent use; operations run from a single interaction loop and
// suspend only at API-call boundaries.
type Manager struct {
	api     APIClient
	tz      *timezone.Handler
	log     logging.Logger
	builder *calendar.Builder

	refDate time.Time
	blocks  []model.FeedingBlock
	loaded  bool
	lastErr error

	// Monotonic sequence for the blocks resource. A response is applied only
	// when no newer request has been issued since, so a slow response can
	// never clobber fresher state.
	issuedSeq uint64
}

func New(apiClient APIClient, tz *timezone.Handler, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		api:     apiClient,
		tz:      tz,
		log:     log,
		builder: calendar.NewBuilder(tz, log),
		refDate: time.Now(),
	}
}

// Blocks returns a deep copy of the current block set; presentational
// consumers never get a handle on the manager's own slice.
func (m *Manager) Blocks() []model.FeedingBlock {
	return model.CloneBlocks(m.blocks)
}

func (m *Manager) Loaded() bool { return m.loaded }

// LastError returns the most recent operation error, or nil.
func (m *Manager) LastError() error { return m.lastErr }

// ReferenceDate is the current navigation position.
func (m *Manager) ReferenceDate() time.Time { return m.refDate }

// SetReferenceDate restores a navigation position, e.g. a persisted cursor.
func (m *Manager) SetReferenceDate(t time.Time) {
	if !t.IsZero() {
		m.refDate = t
	}
}

// WeekView derives the renderable grid for the current week and block set.
func (m *Manager) WeekView() calendar.WeekViewModel {
	return m.builder.BuildWeek(m.refDate, m.blocks)
}

func (m *Manager) nextSeq() uint64 {
	m.issuedSeq++
	return m.issuedSeq
}

// applyBlocks installs a fetched block set unless a newer request for the
// blocks resource has been issued in the meantime.
func (m *Manager) applyBlocks(seq uint64, blocks []model.FeedingBlock) bool {
	if seq < m.issuedSeq {
		m.log.Warnf("discarding stale blocks response (request %d superseded by %d)", seq, m.issuedSeq)
		return false
	}
	m.blocks = blocks
	return true
}

// LoadInitial fetches all blocks and entries for the signed-in user. The
// loaded flag is set regardless of outcome: a failed load yields an empty
// block set plus a recorded error, never an indefinitely loading state.
func (m *Manager) LoadInitial(ctx context.Context) error {
	defer func() { m.loaded = true }()

	seq := m.nextSeq()
	blocks, err := m.api.GetUserBlocksWithEntries(ctx)
	if err != nil {
		m.blocks = nil
		m.lastErr = fmt.Errorf("load feeding blocks: %w", err)
		return m.lastErr
	}
	m.applyBlocks(seq, blocks)
	m.lastErr = nil
	return nil
}

// Navigate shifts the reference date by exactly seven days and refetches
// blocks for the new week. On refetch failure the reference date stays
// moved while the block set keeps its prior value; responsive navigation is
// preferred over strict consistency here.
func (m *Manager) Navigate(ctx context.Context, dir Direction) error {
	weeks := 1
	if dir == Previous {
		weeks = -1
	}
	m.refDate = m.tz.AddWeeks(m.refDate, weeks)
	return m.refetchWeek(ctx)
}

// RefreshWeek refetches blocks scoped to the week containing the current
// reference date without moving it.
func (m *Manager) RefreshWeek(ctx context.Context) error {
	return m.refetchWeek(ctx)
}

func (m *Manager) refetchWeek(ctx context.Context) error {
	start := m.tz.StartOfWeek(m.refDate)
	end := start.AddDate(0, 0, 6)

	seq := m.nextSeq()
	blocks, err := m.api.GetBlocksForWeek(ctx, start, end)
	if err != nil {
		m.lastErr = fmt.Errorf("fetch blocks for week of %s: %w", start.Format("2006-01-02"), err)
		return m.lastErr
	}
	m.applyBlocks(seq, blocks)
	m.lastErr = nil
	return nil
}

// AddBlock asks the backend to create a new block; the server assigns the
// id and the next sequential number and seeds entries. Appended locally
// only on success.
func (m *Manager) AddBlock(ctx context.Context) (model.FeedingBlock, error) {
	block, err := m.api.CreateBlockWithEntries(ctx, false)
	if err != nil {
		m.lastErr = fmt.Errorf("create feeding block: %w", err)
		return model.FeedingBlock{}, m.lastErr
	}
	m.blocks = append(m.blocks, block)
	m.lastErr = nil
	return block, nil
}

// DeleteBlock deletes a block and then refetches the full set, so that the
// server-side renumbering of the remaining blocks is reflected exactly.
// The client never replicates renumbering locally.
func (m *Manager) DeleteBlock(ctx context.Context, blockID string) error {
	if _, err := m.api.DeleteBlock(ctx, blockID); err != nil {
		m.lastErr = fmt.Errorf("delete feeding block %s: %w", blockID, err)
		return m.lastErr
	}

	seq := m.nextSeq()
	blocks, err := m.api.GetUserBlocksWithEntries(ctx)
	if err != nil {
		m.lastErr = fmt.Errorf("refetch blocks after delete: %w", err)
		return m.lastErr
	}
	m.applyBlocks(seq, blocks)
	m.lastErr = nil
	return nil
}

// SetToEliminate marks a block for elimination. The local state-machine
// guard runs first for immediate feedback; the backend re-validates since
// local state can be stale. On success the authoritative post-update set is
// refetched.
func (m *Manager) SetToEliminate(ctx context.Context, blockID string) error {
	if err := elimination.RequestEliminate(m.blocks, blockID); err != nil {
		// Conflict, not failure: surfaced to the user as a warning.
		return err
	}

	if _, err := m.api.UpdateIsEliminating(ctx, true, blockID); err != nil {
		m.lastErr = fmt.Errorf("mark block %s for elimination: %w", blockID, err)
		return m.lastErr
	}

	seq := m.nextSeq()
	blocks, err := m.api.GetUserBlocksWithEntries(ctx)
	if err != nil {
		m.lastErr = fmt.Errorf("refetch blocks after elimination update: %w", err)
		return m.lastErr
	}
	m.applyBlocks(seq, blocks)
	m.lastErr = nil
	return nil
}

// SetEliminationStart records the baseline volume and start date for the
// eliminating block and persists them.
func (m *Manager) SetEliminationStart(ctx context.Context, blockID string, volume float64, at time.Time) error {
	idx := m.blockIndex(blockID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	// Validate the transition on a scratch copy; local state changes only
	// when the server accepts.
	scratch := m.blocks[idx].Clone()
	if err := elimination.SetEliminationStart(&scratch, volume, at); err != nil {
		return err
	}

	updated, err := m.api.SetStartDateForElimination(ctx, volume, blockID, at)
	if err != nil {
		m.lastErr = fmt.Errorf("set elimination start for block %s: %w", blockID, err)
		return m.lastErr
	}
	m.replaceBlock(updated)
	m.lastErr = nil
	return nil
}

// SaveTime saves a new feeding time for an entry. The change is applied
// optimistically; if the backend call fails, local state is restored to the
// pre-call snapshot and the error surfaced.
func (m *Manager) SaveTime(ctx context.Context, blockID, entryID string, newLocalTime time.Time) error {
	// Serialization doubles as validation here: an unrepresentable date
	// aborts the save before any network call or local mutation.
	if _, err := m.tz.ToAPIString(newLocalTime); err != nil {
		return err
	}

	idx, entryIdx := m.entryIndex(blockID, entryID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	if entryIdx < 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	snapshot := model.CloneBlocks(m.blocks)
	m.blocks[idx].FeedingEntries[entryIdx].FeedingTime = newLocalTime

	updated, err := m.api.UpdateTime(ctx, blockID, newLocalTime)
	if err != nil {
		m.blocks = snapshot
		m.lastErr = fmt.Errorf("save feeding time: %w", err)
		return m.lastErr
	}
	m.replaceBlock(updated)
	m.lastErr = nil
	return nil
}

// SaveAmount saves a new feeding volume for an entry. Amounts are validated
// before any network call; the save then follows the same
// optimistic-apply-with-rollback discipline as SaveTime.
func (m *Manager) SaveAmount(ctx context.Context, blockID, entryID string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &ValidationError{Field: "amount", Message: "must be a finite number"}
	}
	if amount < 0 {
		return &ValidationError{Field: "amount", Message: "must be non-negative"}
	}

	idx, entryIdx := m.entryIndex(blockID, entryID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	if entryIdx < 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	snapshot := model.CloneBlocks(m.blocks)
	m.blocks[idx].FeedingEntries[entryIdx].VolumeInOunces = amount

	updated, err := m.api.UpdateFeedingAmount(ctx, amount, entryID)
	if err != nil {
		m.blocks = snapshot
		m.lastErr = fmt.Errorf("save feeding amount: %w", err)
		return m.lastErr
	}
	m.replaceBlock(updated)
	m.lastErr = nil
	return nil
}

func (m *Manager) blockIndex(blockID string) int {
	for i := range m.blocks {
		if m.blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}

func (m *Manager) entryIndex(blockID, entryID string) (blockIdx, entryIdx int) {
	blockIdx = m.blockIndex(blockID)
	if blockIdx < 0 {
		return -1, -1
	}
	for i := range m.blocks[blockIdx].FeedingEntries {
		if m.blocks[blockIdx].FeedingEntries[i].ID == entryID {
			return blockIdx, i
		}
	}
	return blockIdx, -1
}

// replaceBlock swaps in a server-returned block by id, leaving the rest of
// the set untouched. Unknown ids are appended; the server is authoritative.
func (m *Manager) replaceBlock(block model.FeedingBlock) {
	if idx := m.blockIndex(block.ID); idx >= 0 {
		m.blocks[idx] = block
		return
	}
	m.blocks = append(m.blocks, block)
}
