package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir = "pkg/migrate/migrations"

	// goose files target Postgres; sqlite databases go through AutoMigrate.
	dialect = "postgres"
)

// Command is a goose operation the migrate CLI can apply against a live database.
type Command string

const (
	CommandUp      Command = "up"
	CommandDown    Command = "down"
	CommandStatus  Command = "status"
	CommandVersion Command = "version"
)

// ParseCommand maps a -cmd flag value onto a database command.
func ParseCommand(raw string) (Command, error) {
	switch cmd := Command(raw); cmd {
	case CommandUp, CommandDown, CommandStatus, CommandVersion:
		return cmd, nil
	}
	return "", fmt.Errorf("unknown migrate command %q", raw)
}

// Apply runs cmd over the migrations in dir. target is the YYYYMMDDHHMMSS
// version and is only read by CommandVersion.
func Apply(ctx context.Context, db *sql.DB, dir string, cmd Command, target string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if cmd == CommandVersion {
		return migrateTo(ctx, db, dir, target)
	}
	if err := goose.RunContext(ctx, string(cmd), db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}

func migrateTo(ctx context.Context, db *sql.DB, dir, target string) error {
	if target == "" {
		return fmt.Errorf("target version is required")
	}
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	if current < version {
		if err := goose.UpToContext(ctx, db, dir, version); err != nil {
			return fmt.Errorf("goose up-to %d: %w", version, err)
		}
	} else if current > version {
		if err := goose.DownToContext(ctx, db, dir, version); err != nil {
			return fmt.Errorf("goose down-to %d: %w", version, err)
		}
	}
	return nil
}
