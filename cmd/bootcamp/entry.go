package bootcamp

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/manager"
	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage feeding entries",
}

var (
	entrySetTime   string
	entrySetDate   string
	entrySetOunces float64
)

var entrySetTimeCmd = &cobra.Command{
	Use:   "set-time <block-id> <entry-id>",
	Short: "Set the wall-clock time of a feeding entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if entrySetTime == "" {
			return fmt.Errorf("--time is required")
		}
		hour, minute, err := parseClockTime(entrySetTime)
		if err != nil {
			return err
		}
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.LoadInitial(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			entry, err := findEntry(m, args[0], args[1])
			if err != nil {
				return err
			}

			// The entry keeps its calendar day unless --date overrides it.
			day, err := tz.ToLocal(entry.FeedingTime)
			if err != nil {
				return err
			}
			if entrySetDate != "" {
				day, err = parseDateInZone(entrySetDate, tz)
				if err != nil {
					return err
				}
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, tz.Location())

			if err := m.SaveTime(cmd.Context(), args[0], args[1], at); err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s set to %s\n", args[1], tz.FormatForDisplay(at, "Mon Jan 2 15:04"))
			return nil
		})
	},
}

var entrySetAmountCmd = &cobra.Command{
	Use:   "set-amount <block-id> <entry-id>",
	Short: "Set the volume of a feeding entry in ounces",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("ounces") {
			return fmt.Errorf("--ounces is required")
		}
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.LoadInitial(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			if err := m.SaveAmount(cmd.Context(), args[0], args[1], entrySetOunces); err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s set to %.2foz\n", args[1], entrySetOunces)
			return nil
		})
	},
}

func findEntry(m *manager.Manager, blockID, entryID string) (model.FeedingEntry, error) {
	for _, block := range m.Blocks() {
		if block.ID != blockID {
			continue
		}
		for _, entry := range block.FeedingEntries {
			if entry.ID == entryID {
				return entry, nil
			}
		}
		return model.FeedingEntry{}, fmt.Errorf("entry %s not found in block %s", entryID, blockID)
	}
	return model.FeedingEntry{}, fmt.Errorf("block %s not found", blockID)
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entrySetTimeCmd, entrySetAmountCmd)

	entrySetTimeCmd.Flags().StringVar(&entrySetTime, "time", "", "New time (HH:MM)")
	entrySetTimeCmd.Flags().StringVar(&entrySetDate, "date", "", "New date (YYYY-MM-DD, defaults to the entry's current day)")
	entrySetAmountCmd.Flags().Float64Var(&entrySetOunces, "ounces", 0, "New volume in ounces")
}
