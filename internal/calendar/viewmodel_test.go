package calendar_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/calendar"
	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

func newBuilder(t *testing.T, zone string) *calendar.Builder {
	t.Helper()
	tz, err := timezone.NewZone(zone)
	if err != nil {
		t.Fatalf("load zone %s: %v", zone, err)
	}
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return calendar.NewBuilder(tz, nil).WithNow(func() time.Time { return fixed })
}

func testBlocks() []model.FeedingBlock {
	return []model.FeedingBlock{
		{
			ID:     "block-2",
			Number: 2,
			FeedingEntries: []model.FeedingEntry{
				{ID: "entry-2", BlockID: "block-2", FeedingTime: time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC), VolumeInOunces: 3.5},
			},
		},
		{
			ID:     "block-1",
			Number: 1,
			FeedingEntries: []model.FeedingEntry{
				{ID: "entry-1", BlockID: "block-1", FeedingTime: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), VolumeInOunces: 4.5},
			},
		},
	}
}

func TestBuildWeekOrdersColumnsByNumber(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), testBlocks())
	if len(vm.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(vm.Columns))
	}
	if vm.Columns[0].Number != 1 || vm.Columns[1].Number != 2 {
		t.Fatalf("columns out of order: %+v", vm.Columns)
	}
	if vm.Columns[0].Label != "Block 1" {
		t.Fatalf("unexpected column label %q", vm.Columns[0].Label)
	}
}

func TestBuildWeekMatchesEntriesToDays(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), testBlocks())
	if !vm.StartOfWeek.Equal(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start %v", vm.StartOfWeek)
	}

	// Monday the 15th is row index 1 (Sunday-first); block 1 has an entry there.
	monday := vm.Rows[1]
	if monday.Cells[0].Entry == nil || monday.Cells[0].Entry.ID != "entry-1" {
		t.Fatalf("expected entry-1 in (Mon, block 1), got %+v", monday.Cells[0].Entry)
	}
	// Block 2's entry is 02:00 UTC Tuesday.
	tuesday := vm.Rows[2]
	if tuesday.Cells[1].Entry == nil || tuesday.Cells[1].Entry.ID != "entry-2" {
		t.Fatalf("expected entry-2 in (Tue, block 2), got %+v", tuesday.Cells[1].Entry)
	}
	// Empty cells are present, not absent.
	if monday.Cells[1].Entry != nil {
		t.Fatalf("expected empty cell for (Mon, block 2)")
	}
}

func TestBuildWeekMatchingIsTimezoneAware(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "America/New_York")

	// 02:00 UTC Tuesday is still Monday evening in Eastern time.
	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), testBlocks())
	monday := vm.Rows[1]
	if monday.Cells[1].Entry == nil || monday.Cells[1].Entry.ID != "entry-2" {
		t.Fatalf("expected entry-2 matched to Monday in Eastern time, got %+v", monday.Cells[1].Entry)
	}
}

func TestBuildWeekDuplicateSameDayEntriesKeepFirst(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	blocks := []model.FeedingBlock{{
		ID:     "block-1",
		Number: 1,
		FeedingEntries: []model.FeedingEntry{
			{ID: "first", FeedingTime: time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)},
			{ID: "second", FeedingTime: time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC)},
		},
	}}

	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), blocks)
	entry := vm.Rows[1].Cells[0].Entry
	if entry == nil || entry.ID != "first" {
		t.Fatalf("expected first duplicate to win, got %+v", entry)
	}
}

func TestBuildWeekEmptyBlocksShowsSentinel(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), nil)
	if vm.EmptyMessage != calendar.EmptyStateMessage {
		t.Fatalf("expected empty-state message, got %q", vm.EmptyMessage)
	}
	if len(vm.Columns) != 0 || len(vm.Rows) != 0 {
		t.Fatalf("expected zero columns and rows, got %d/%d", len(vm.Columns), len(vm.Rows))
	}
}

func TestBuildWeekBlockWithoutEntriesRendersEmptyCells(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	blocks := []model.FeedingBlock{{ID: "block-1", Number: 1}}
	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), blocks)
	if len(vm.Rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(vm.Rows))
	}
	for _, row := range vm.Rows {
		if len(row.Cells) != 1 {
			t.Fatalf("expected 1 cell per row, got %d", len(row.Cells))
		}
		if row.Cells[0].Entry != nil {
			t.Fatalf("expected empty cell on %v", row.Day)
		}
	}
}

func TestBuildWeekIsIdempotent(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	blocks := testBlocks()
	first := b.BuildWeek(ref, blocks)
	second := b.BuildWeek(ref, blocks)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("view-model not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBuildWeekDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	blocks := testBlocks()
	if blocks[0].Number != 2 {
		t.Fatalf("fixture changed; expected block number 2 first")
	}
	b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), blocks)
	if blocks[0].Number != 2 {
		t.Fatalf("builder reordered caller's slice")
	}
}

func TestBuildWeekMarksToday(t *testing.T) {
	t.Parallel()
	b := newBuilder(t, "UTC")

	vm := b.BuildWeek(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), testBlocks())
	for i, row := range vm.Rows {
		want := i == 1 // fixed clock is Monday 2024-01-15
		if row.IsToday != want {
			t.Fatalf("row %d IsToday=%v, want %v", i, row.IsToday, want)
		}
	}
}
