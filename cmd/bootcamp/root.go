package bootcamp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	apiURL  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bootcamp",
	Short: "bootcamp tracks your baby's night feedings from your terminal",
	Long: "bootcamp is the terminal client for the Baby Bootcamp feeding tracker: " +
		"log in, view the weekly feeding calendar, record times and volumes, and " +
		"work through eliminating night feedings one block at a time.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to local state database")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Baby Bootcamp API base URL (overrides BOOTCAMP_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}
