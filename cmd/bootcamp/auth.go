package bootcamp

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

var (
	loginUsername string
	loginPassword string

	signupParams model.RegisterParams
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(loginUsername) == "" || loginPassword == "" {
			return fmt.Errorf("--username and --password are required")
		}
		return withClient(func(sqldb *sql.DB, client *api.Client, _ *timezone.Handler) error {
			token, err := client.LogInUser(cmd.Context(), model.Credentials{
				Username: loginUsername,
				Password: loginPassword,
			})
			if err != nil {
				return describeAPIError(err)
			}
			if err := auth.SetToken(sqldb, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", loginUsername)
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		missing := []string{}
		for name, value := range map[string]string{
			"--username":  signupParams.Username,
			"--password":  signupParams.Password,
			"--first":     signupParams.FirstName,
			"--last":      signupParams.LastName,
			"--email":     signupParams.Email,
			"--baby-name": signupParams.BabyName,
		} {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
		}
		return withClient(func(sqldb *sql.DB, client *api.Client, _ *timezone.Handler) error {
			token, err := client.RegisterUser(cmd.Context(), signupParams)
			if err != nil {
				return describeAPIError(err)
			}
			if err := auth.SetToken(sqldb, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are now logged in.\n", signupParams.FirstName)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := auth.Clear(sqldb); err != nil {
				return err
			}
			if err := clearCursor(sqldb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(_ *sql.DB, client *api.Client, session *auth.Session, _ *timezone.Handler) error {
			profile, err := client.GetCurrentUser(cmd.Context(), session.Username)
			if err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("user %q no longer exists on the server", session.Username)
				}
				return describeAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Username: %s\n", profile.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "Name: %s %s\n", profile.FirstName, profile.LastName)
			fmt.Fprintf(cmd.OutOrStdout(), "Email: %s\n", profile.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Baby: %s\n", profile.BabyName)
			return nil
		})
	},
}

// describeAPIError fans a backend validation error out to one line per
// field message.
func describeAPIError(err error) error {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && len(reqErr.Messages) > 0 {
		return fmt.Errorf("request failed:\n  - %s", strings.Join(reqErr.Messages, "\n  - "))
	}
	return err
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")

	signupCmd.Flags().StringVar(&signupParams.Username, "username", "", "Username")
	signupCmd.Flags().StringVar(&signupParams.Password, "password", "", "Password")
	signupCmd.Flags().StringVar(&signupParams.FirstName, "first", "", "First name")
	signupCmd.Flags().StringVar(&signupParams.LastName, "last", "", "Last name")
	signupCmd.Flags().StringVar(&signupParams.Email, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupParams.BabyName, "baby-name", "", "Baby's name")
}
