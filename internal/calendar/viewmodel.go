// Package calendar computes the weekly view-model: a renderable grid mapping
// each (day, block) pair to at most one feeding entry.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/logging"
	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

// EmptyStateMessage is shown instead of per-day rows when the user has no
// feeding blocks.
const EmptyStateMessage = "Your baby is sleeping through the night!"

// Column describes one feeding-block column of the grid.
type Column struct {
	BlockID       string
	Number        int
	Label         string
	IsEliminating bool
}

// Cell holds the matched entry for a (day, block) pair, or nil when the cell
// renders an add-entry affordance instead.
type Cell struct {
	BlockID string
	Day     time.Time
	Entry   *model.FeedingEntry
}

// Row is one day of the displayed week.
type Row struct {
	Day     time.Time
	IsToday bool
	Cells   []Cell
}

// WeekViewModel is the derived, render-ready weekly grid. It is never
// persisted and is rebuilt fresh on every navigation action.
type WeekViewModel struct {
	StartOfWeek  time.Time
	Days         [7]time.Time
	MonthAndYear string
	Columns      []Column
	Rows         []Row
	EmptyMessage string
}

// Builder derives weekly view-models. Building has no side effects beyond
// logging; identical inputs produce structurally identical output.
type Builder struct {
	tz  *timezone.Handler
	log logging.Logger
	now func() time.Time
}

func NewBuilder(tz *timezone.Handler, log logging.Logger) *Builder {
	if log == nil {
		log = logging.NewNop()
	}
	return &Builder{tz: tz, log: log, now: time.Now}
}

// WithNow fixes the clock used for today-highlighting. Tests use this to pin
// the highlighted day.
func (b *Builder) WithNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// BuildWeek maps the given blocks onto the week containing ref.
//
// Blocks are ordered by number ascending. For each day, each block
// contributes the entry whose feeding time falls on that local day; when a
// block holds more than one entry for the same day (a data anomaly) the
// first encountered is used and the condition is logged, never surfaced as
// an error.
func (b *Builder) BuildWeek(ref time.Time, blocks []model.FeedingBlock) WeekViewModel {
	vm := WeekViewModel{
		StartOfWeek:  b.tz.StartOfWeek(ref),
		Days:         b.tz.WeekDates(ref),
		MonthAndYear: b.tz.FormatForDisplay(b.tz.StartOfWeek(ref), "January 2006"),
	}

	if len(blocks) == 0 {
		vm.EmptyMessage = EmptyStateMessage
		return vm
	}

	ordered := make([]model.FeedingBlock, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	vm.Columns = make([]Column, len(ordered))
	for i, block := range ordered {
		vm.Columns[i] = Column{
			BlockID:       block.ID,
			Number:        block.Number,
			Label:         fmt.Sprintf("Block %d", block.Number),
			IsEliminating: block.IsEliminating,
		}
	}

	now := b.now()
	vm.Rows = make([]Row, len(vm.Days))
	for d, day := range vm.Days {
		row := Row{
			Day:     day,
			IsToday: b.tz.SameLocalDay(day, now),
			Cells:   make([]Cell, len(ordered)),
		}
		for c, block := range ordered {
			row.Cells[c] = Cell{
				BlockID: block.ID,
				Day:     day,
				Entry:   b.entryForDay(block, day),
			}
		}
		vm.Rows[d] = row
	}
	return vm
}

func (b *Builder) entryForDay(block model.FeedingBlock, day time.Time) *model.FeedingEntry {
	var found *model.FeedingEntry
	for i := range block.FeedingEntries {
		entry := block.FeedingEntries[i]
		if !b.tz.SameLocalDay(entry.FeedingTime, day) {
			continue
		}
		if found != nil {
			b.log.Warnf("block %s has multiple entries on %s; keeping entry %s, ignoring %s",
				block.ID, day.Format("2006-01-02"), found.ID, entry.ID)
			continue
		}
		e := entry
		found = &e
	}
	return found
}
