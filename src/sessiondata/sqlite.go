package sessiondata

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"git.handmade.network/hmn/tablelog/src/db"
	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/oops"
	"git.handmade.network/hmn/tablelog/src/perf"
)

// Dates are stored as UTC unix microseconds so they sort numerically.
var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS session_record (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		system TEXT NOT NULL,
		players TEXT NOT NULL,
		date INTEGER NOT NULL
	)
	`,
	`CREATE INDEX IF NOT EXISTS session_record_title ON session_record (title)`,
	`CREATE INDEX IF NOT EXISTS session_record_date ON session_record (date)`,
}

var sessionRecordType = reflect.TypeOf(models.SessionRecord{})

// SQLiteStore keeps session records in a SQLite database. AUTOINCREMENT
// guarantees ids are never reused, matching the Postgres identity column.
type SQLiteStore struct {
	sqlDB *sql.DB
}

var _ Store = &SQLiteStore{}

func OpenSQLiteStore(ctx context.Context, sqlDB *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{sqlDB: sqlDB}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		for _, stmt := range sqliteSchema {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, oops.New(err, "failed to create session_record table")
	}
	return s, nil
}

func (s *SQLiteStore) Close() {
	_ = s.sqlDB.Close()
}

// Holds one connection for the duration of f and always gives it back.
func (s *SQLiteStore) withConn(ctx context.Context, f func(conn *sql.Conn) error) error {
	conn, err := s.sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return f(conn)
}

func (s *SQLiteStore) CreateSession(ctx context.Context, fields models.SessionCreate) (*models.SessionRecord, error) {
	if err := ValidateCreate(fields); err != nil {
		return nil, err
	}

	date := time.Now()
	if fields.Date != nil {
		date = *fields.Date
	}

	var record *models.SessionRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		record, err = s.queryOne(ctx, conn,
			`
			---- Create session
			INSERT INTO session_record (title, system, players, date)
			VALUES (?, ?, ?, ?)
			RETURNING $columns
			`,
			fields.Title,
			fields.System,
			fields.Players,
			toMicros(date),
		)
		return err
	})
	if err != nil {
		return nil, oops.New(err, "failed to insert session")
	}
	return record, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int) (*models.SessionRecord, error) {
	var record *models.SessionRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		record, err = s.queryOne(ctx, conn,
			`
			---- Fetch session
			SELECT $columns
			FROM session_record
			WHERE id = ?
			`,
			id,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, NotFound
		}
		return nil, oops.New(err, "failed to fetch session %d", id)
	}
	return record, nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.SessionRecord, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetSession(ctx, id)
	}

	var date *int64
	if patch.Date != nil {
		micros := toMicros(*patch.Date)
		date = &micros
	}

	var record *models.SessionRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		record, err = s.queryOne(ctx, conn,
			`
			---- Update session
			UPDATE session_record
			SET
				title = COALESCE(?, title),
				system = COALESCE(?, system),
				players = COALESCE(?, players),
				date = COALESCE(?, date)
			WHERE id = ?
			RETURNING $columns
			`,
			patch.Title,
			patch.System,
			patch.Players,
			date,
			id,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, NotFound
		}
		return nil, oops.New(err, "failed to update session %d", id)
	}
	return record, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id int) error {
	var deleted int64
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`
			---- Delete session
			DELETE FROM session_record
			WHERE id = ?
			`,
			id,
		)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return oops.New(err, "failed to delete session %d", id)
	}
	if deleted == 0 {
		return NotFound
	}
	return nil
}

func (s *SQLiteStore) CountSessions(ctx context.Context, q SessionQuery) (int, error) {
	qb := buildCountQuery(sqliteDialect, q)
	b := perf.ExtractPerf(ctx).StartBlock("SQL", "Count sessions")
	defer b.End()

	var total int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, qb.String(), qb.Args()...).Scan(&total)
	})
	if err != nil {
		return 0, oops.New(err, "failed to count sessions")
	}
	return total, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, q SessionQuery) ([]models.SessionRecord, error) {
	qb := buildListQuery(sqliteDialect, q)

	result := []models.SessionRecord{}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		records, err := s.query(ctx, conn, qb.String(), qb.Args()...)
		for _, record := range records {
			result = append(result, *record)
		}
		return err
	})
	if err != nil {
		return nil, oops.New(err, "failed to fetch sessions")
	}
	return result, nil
}

func (s *SQLiteStore) query(ctx context.Context, conn *sql.Conn, query string, args ...any) ([]*models.SessionRecord, error) {
	if name, ok := db.GetQueryName(query); ok {
		b := perf.ExtractPerf(ctx).StartBlock("SQL", name)
		defer b.End()
	}

	rows, err := conn.QueryContext(ctx, db.CompileColumns(query, sessionRecordType), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.SessionRecord
	for rows.Next() {
		record, err := scanSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) queryOne(ctx context.Context, conn *sql.Conn, query string, args ...any) (*models.SessionRecord, error) {
	records, err := s.query(ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, db.NotFound
	}
	return records[0], nil
}

// Column order follows the `db` tags on models.SessionRecord, which is what
// $columns expands to.
func scanSessionRecord(rows *sql.Rows) (*models.SessionRecord, error) {
	var record models.SessionRecord
	var micros int64
	if err := rows.Scan(&record.ID, &record.Title, &record.System, &record.Players, &micros); err != nil {
		return nil, err
	}
	record.Date = fromMicros(micros)
	return &record, nil
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}
