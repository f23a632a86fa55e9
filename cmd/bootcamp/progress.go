package bootcamp

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/elimination"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show feeding volume trends and elimination progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, client *api.Client, _ *auth.Session, tz *timezone.Handler) error {
			m, err := newManager(sqldb, client, tz)
			if err != nil {
				return err
			}
			if err := m.LoadInitial(cmd.Context()); err != nil {
				return describeAPIError(err)
			}
			blocks := m.Blocks()
			if len(blocks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No feeding blocks yet.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, p := range elimination.Summarize(blocks, time.Now()) {
				fmt.Fprintf(out, "Block %d (%s)\n", p.Number, p.BlockID)
				fmt.Fprintf(out, "  Entries: %d | Total: %.2foz | Average: %.2foz\n",
					p.EntryCount, p.TotalOunces, p.AverageOunces)
				if p.IsEliminating {
					fmt.Fprintf(out, "  Eliminating: baseline %.2foz | reduction %.1f%% | day %d\n",
						p.BaselineOunces, p.ReductionPct, p.DaysInProgress)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
