package bootcamp

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/elimination"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage feeding blocks",
}

var blockAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a feeding block with entries for the current week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			block, err := m.AddBlock(cmd.Context())
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added block %d (%s)\n", block.Number, block.ID)
			return nil
		})
	},
}

var blockDeleteYes bool

var blockDeleteCmd = &cobra.Command{
	Use:   "delete <block-id>",
	Short: "Delete a feeding block and its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !blockDeleteYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete block %s and all of its entries? [y/N] ", args[0])
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.DeleteBlock(cmd.Context(), args[0]); err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted block %s; remaining blocks were renumbered\n", args[0])
			return nil
		})
	},
}

var blockEliminateCmd = &cobra.Command{
	Use:   "eliminate <block-id>",
	Short: "Mark a feeding block for elimination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.LoadInitial(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			if err := m.SetToEliminate(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, elimination.ErrAlreadyEliminating) {
					fmt.Fprintln(cmd.OutOrStdout(), "You can only eliminate one block at a time.")
					return nil
				}
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Block %s is now being eliminated\n", args[0])
			return nil
		})
	},
}

var (
	eliminateStartOunces float64
	eliminateStartDate   string
	eliminateStartTime   string
)

var blockEliminateStartCmd = &cobra.Command{
	Use:   "eliminate-start <block-id>",
	Short: "Record the baseline volume and start date for an elimination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("ounces") {
			return fmt.Errorf("--ounces is required")
		}
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			at, err := resolveEliminationStart(tz)
			if err != nil {
				return err
			}
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.LoadInitial(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			if err := m.SetEliminationStart(cmd.Context(), args[0], eliminateStartOunces, at); err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Elimination of block %s starts %s at %.2foz\n",
				args[0], tz.FormatForDisplay(at, "Jan 2, 2006"), eliminateStartOunces)
			return nil
		})
	},
}

// resolveEliminationStart combines the optional --date and --time flags into
// a moment in the viewer's timezone, defaulting to now.
func resolveEliminationStart(tz *timezone.Handler) (time.Time, error) {
	now := time.Now().In(tz.Location())
	day := now
	if eliminateStartDate != "" {
		parsed, err := parseDateInZone(eliminateStartDate, tz)
		if err != nil {
			return time.Time{}, err
		}
		day = parsed
	}
	hour, minute := now.Hour(), now.Minute()
	if eliminateStartTime != "" {
		h, m, err := parseClockTime(eliminateStartTime)
		if err != nil {
			return time.Time{}, err
		}
		hour, minute = h, m
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, tz.Location()), nil
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.AddCommand(blockAddCmd, blockDeleteCmd, blockEliminateCmd, blockEliminateStartCmd)

	blockDeleteCmd.Flags().BoolVarP(&blockDeleteYes, "yes", "y", false, "Skip the confirmation prompt")

	blockEliminateStartCmd.Flags().Float64Var(&eliminateStartOunces, "ounces", 0, "Baseline feeding volume in ounces")
	blockEliminateStartCmd.Flags().StringVar(&eliminateStartDate, "date", "", "Start date (YYYY-MM-DD, defaults to today)")
	blockEliminateStartCmd.Flags().StringVar(&eliminateStartTime, "time", "", "Start time (HH:MM, defaults to now)")
}
