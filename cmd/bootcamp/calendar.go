package bootcamp

import (
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/calendar"
	"github.com/aubrey-sherman/baby-bootcamp/internal/manager"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

var (
	calendarPrev  bool
	calendarNext  bool
	calendarReset bool
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the weekly feeding calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		if calendarPrev && calendarNext {
			return fmt.Errorf("--prev and --next cannot be combined")
		}
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			if calendarReset {
				if err := clearCursor(sqldb); err != nil {
					return err
				}
			}
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			_, cursorRestored := loadCursor(sqldb)

			ctx := cmd.Context()
			switch {
			case calendarPrev:
				err = m.Navigate(ctx, manager.Previous)
			case calendarNext:
				err = m.Navigate(ctx, manager.Next)
			case cursorRestored:
				err = m.RefreshWeek(ctx)
			default:
				err = m.LoadInitial(ctx)
			}
			if err != nil {
				return describeAPIError(err)
			}

			if err := saveCursor(sqldb, m.ReferenceDate()); err != nil {
				return err
			}
			renderWeek(cmd.OutOrStdout(), m.WeekView(), tz)
			return nil
		})
	},
}

// renderWeek prints the week grid: one row per day, one column per feeding
// block, a leading day-label column. Empty cells invite an entry; the
// eliminating column is marked with an asterisk.
func renderWeek(out io.Writer, vm calendar.WeekViewModel, tz *timezone.Handler) {
	fmt.Fprintf(out, "%s (week of %s)\n\n", vm.MonthAndYear, tz.FormatForDisplay(vm.StartOfWeek, "Jan 2"))

	if vm.EmptyMessage != "" {
		fmt.Fprintln(out, vm.EmptyMessage)
		fmt.Fprintln(out, "Run 'bootcamp block add' to start tracking a feeding.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "Day"
	for _, col := range vm.Columns {
		label := col.Label
		if col.IsEliminating {
			label += " *"
		}
		header += "\t" + label
	}
	fmt.Fprintln(w, header)

	for _, row := range vm.Rows {
		line := tz.FormatForDisplay(row.Day, "Mon 1/2")
		if row.IsToday {
			line = "> " + line
		}
		for _, cell := range row.Cells {
			line += "\t" + renderCell(cell, tz)
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()

	for _, col := range vm.Columns {
		if col.IsEliminating {
			fmt.Fprintln(out, "\n* block being eliminated")
			break
		}
	}
}

func renderCell(cell calendar.Cell, tz *timezone.Handler) string {
	if cell.Entry == nil {
		return "--"
	}
	local, err := tz.ToLocal(cell.Entry.FeedingTime)
	if err != nil {
		local = cell.Entry.FeedingTime
	}
	return fmt.Sprintf("%s %.2foz", local.Format("15:04"), cell.Entry.VolumeInOunces)
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().BoolVar(&calendarPrev, "prev", false, "Navigate one week back")
	calendarCmd.Flags().BoolVar(&calendarNext, "next", false, "Navigate one week forward")
	calendarCmd.Flags().BoolVar(&calendarReset, "reset", false, "Jump back to the current week")
}
