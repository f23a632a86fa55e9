package bootcamp

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/api"
	"github.com/aubrey-sherman/baby-bootcamp/internal/app"
	"github.com/aubrey-sherman/baby-bootcamp/internal/auth"
	"github.com/aubrey-sherman/baby-bootcamp/internal/config"
	"github.com/aubrey-sherman/baby-bootcamp/internal/db"
	"github.com/aubrey-sherman/baby-bootcamp/internal/logging"
	"github.com/aubrey-sherman/baby-bootcamp/internal/manager"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

// cursorKey is the client-state key persisting the calendar navigation
// position between invocations.
const cursorKey = "calendar_cursor"

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	return app.DefaultDBPath()
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func newTimezoneHandler(cfg *config.Config) (*timezone.Handler, error) {
	if cfg.Timezone != "" {
		return timezone.NewZone(cfg.Timezone)
	}
	return timezone.NewLocal(), nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.New(cfg.LogLevel)
}

// withClient runs with an API client that carries no session token. Used by
// signup and login, which mint the token.
func withClient(run func(*sql.DB, *api.Client, *timezone.Handler) error) error {
	return withDB(func(sqldb *sql.DB) error {
		cfg := loadConfig()
		tz, err := newTimezoneHandler(cfg)
		if err != nil {
			return err
		}
		return run(sqldb, api.New(cfg.APIBaseURL, "", tz), tz)
	})
}

// withSession runs with an authenticated API client. A missing or expired
// session is reported as a plain instruction to log in, never a stack of
// errors.
func withSession(run func(*sql.DB, *api.Client, *auth.Session, *timezone.Handler) error) error {
	return withDB(func(sqldb *sql.DB) error {
		session, err := auth.Current(sqldb)
		if err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("not logged in; run 'bootcamp login' first")
		}
		cfg := loadConfig()
		tz, err := newTimezoneHandler(cfg)
		if err != nil {
			return err
		}
		return run(sqldb, api.New(cfg.APIBaseURL, session.Token, tz), session, tz)
	})
}

// newManager builds a feeding manager for an authenticated command and points
// it at the persisted calendar cursor so week-scoped refetches cover the week
// the user is looking at.
func newManager(sqldb *sql.DB, client *api.Client, tz *timezone.Handler) (*manager.Manager, error) {
	log, err := newLogger(loadConfig())
	if err != nil {
		return nil, err
	}
	m := manager.New(client, tz, log)
	if cursor, ok := loadCursor(sqldb); ok {
		m.SetReferenceDate(cursor)
	}
	return m, nil
}

// parseClockTime validates an HH:MM wall-clock value.
func parseClockTime(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM)", value)
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM)", value)
	}
	return hour, minute, nil
}

// parseDateInZone parses a YYYY-MM-DD value in the viewer's timezone.
func parseDateInZone(value string, tz *timezone.Handler) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), tz.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return t, nil
}

// loadCursor restores the persisted navigation position, if any.
func loadCursor(sqldb *sql.DB) (time.Time, bool) {
	raw, ok, err := db.GetState(sqldb, cursorKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func saveCursor(sqldb *sql.DB, t time.Time) error {
	return db.SetState(sqldb, cursorKey, t.Format(time.RFC3339))
}

func clearCursor(sqldb *sql.DB) error {
	return db.DeleteState(sqldb, cursorKey)
}
