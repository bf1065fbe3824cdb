package sessiondata

import (
	"context"
	"strings"

	"git.handmade.network/hmn/tablelog/src/config"
	"git.handmade.network/hmn/tablelog/src/db"
	"git.handmade.network/hmn/tablelog/src/logging"
	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/oops"
	"git.handmade.network/hmn/tablelog/src/utils"
)

/*
The backing store for session records. Every method acquires a connection
for the duration of the call and releases it before returning, so a Store is
safe to share between concurrent requests.

Get, Update and Delete return NotFound for ids that do not exist.
CountSessions and ListSessions expect an already validated query; callers
should go through FetchSessionPage instead of using them directly.
*/
type Store interface {
	CreateSession(ctx context.Context, fields models.SessionCreate) (*models.SessionRecord, error)
	GetSession(ctx context.Context, id int) (*models.SessionRecord, error)
	UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.SessionRecord, error)
	DeleteSession(ctx context.Context, id int) error

	CountSessions(ctx context.Context, q SessionQuery) (int, error)
	ListSessions(ctx context.Context, q SessionQuery) ([]models.SessionRecord, error)

	Close()
}

// Opens the store selected by cfg.Driver and makes sure its table exists.
func Open(ctx context.Context, cfg config.TablelogConfig) (store Store, err error) {
	// NewConnPoolWithConfig panics on bad config
	defer utils.RecoverPanicAsError(&err)

	switch cfg.Driver {
	case config.DriverPostgres:
		logging.Info().Str("host", cfg.Postgres.Hostname).Str("db", cfg.Postgres.DbName).Msg("Using Postgres session store")
		pgStore, err := OpenPostgresStore(ctx, db.NewConnPoolWithConfig(cfg.Postgres))
		if err != nil {
			return nil, err
		}
		return pgStore, nil
	case config.DriverSQLite:
		logging.Info().Str("path", cfg.SQLite.Path).Msg("Using SQLite session store")
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		sqliteStore, err := OpenSQLiteStore(ctx, sqlDB)
		if err != nil {
			return nil, err
		}
		return sqliteStore, nil
	default:
		return nil, oops.New(nil, "unknown database driver '%s' (expected %s or %s)", cfg.Driver, config.DriverPostgres, config.DriverSQLite)
	}
}

func ValidateCreate(fields models.SessionCreate) error {
	if err := requireText("title", fields.Title); err != nil {
		return err
	}
	if err := requireText("system", fields.System); err != nil {
		return err
	}
	if err := requireText("players", fields.Players); err != nil {
		return err
	}
	return nil
}

func ValidatePatch(patch models.SessionPatch) error {
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return err
		}
	}
	if patch.System != nil {
		if err := requireText("system", *patch.System); err != nil {
			return err
		}
	}
	if patch.Players != nil {
		if err := requireText("players", *patch.Players); err != nil {
			return err
		}
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "%s must not be empty", field)
	}
	return nil
}
