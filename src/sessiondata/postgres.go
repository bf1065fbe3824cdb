package sessiondata

import (
	"context"
	"errors"

	"git.handmade.network/hmn/tablelog/src/db"
	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/oops"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS session_record (
		id INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		system TEXT NOT NULL,
		players TEXT NOT NULL,
		date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	)
	`,
	`CREATE INDEX IF NOT EXISTS session_record_title ON session_record (title)`,
	`CREATE INDEX IF NOT EXISTS session_record_date ON session_record (date)`,
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = &PostgresStore{}

func OpenPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	err := pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		for _, stmt := range postgresSchema {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.New(err, "failed to create session_record table")
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateSession(ctx context.Context, fields models.SessionCreate) (*models.SessionRecord, error) {
	if err := ValidateCreate(fields); err != nil {
		return nil, err
	}

	var record *models.SessionRecord
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		var err error
		record, err = db.QueryOne[models.SessionRecord](ctx, conn,
			`
			---- Create session
			INSERT INTO session_record (title, system, players, date)
			VALUES ($1, $2, $3, COALESCE($4::TIMESTAMP WITH TIME ZONE, now()))
			RETURNING $columns
			`,
			fields.Title,
			fields.System,
			fields.Players,
			fields.Date,
		)
		return err
	})
	if err != nil {
		return nil, oops.New(err, "failed to insert session")
	}
	return normalize(record), nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id int) (*models.SessionRecord, error) {
	var record *models.SessionRecord
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		var err error
		record, err = db.QueryOne[models.SessionRecord](ctx, conn,
			`
			---- Fetch session
			SELECT $columns
			FROM session_record
			WHERE id = $1
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
	return normalize(record), nil
}

func (s *PostgresStore) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.SessionRecord, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetSession(ctx, id)
	}

	var record *models.SessionRecord
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		var err error
		record, err = db.QueryOne[models.SessionRecord](ctx, conn,
			`
			---- Update session
			UPDATE session_record
			SET
				title = COALESCE($2::TEXT, title),
				system = COALESCE($3::TEXT, system),
				players = COALESCE($4::TEXT, players),
				date = COALESCE($5::TIMESTAMP WITH TIME ZONE, date)
			WHERE id = $1
			RETURNING $columns
			`,
			id,
			patch.Title,
			patch.System,
			patch.Players,
			patch.Date,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, NotFound
		}
		return nil, oops.New(err, "failed to update session %d", id)
	}
	return normalize(record), nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id int) error {
	var deleted int64
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx,
			`
			---- Delete session
			DELETE FROM session_record
			WHERE id = $1
			`,
			id,
		)
		deleted = tag.RowsAffected()
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

func (s *PostgresStore) CountSessions(ctx context.Context, q SessionQuery) (int, error) {
	qb := buildCountQuery(postgresDialect, q)

	var total int
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		var err error
		total, err = db.QueryOneScalar[int](ctx, conn, qb.String(), qb.Args()...)
		return err
	})
	if err != nil {
		return 0, oops.New(err, "failed to count sessions")
	}
	return total, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, q SessionQuery) ([]models.SessionRecord, error) {
	qb := buildListQuery(postgresDialect, q)

	var records []*models.SessionRecord
	err := s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
		var err error
		records, err = db.Query[models.SessionRecord](ctx, conn, qb.String(), qb.Args()...)
		return err
	})
	if err != nil {
		return nil, oops.New(err, "failed to fetch sessions")
	}

	result := make([]models.SessionRecord, 0, len(records))
	for _, record := range records {
		result = append(result, *normalize(record))
	}
	return result, nil
}

// pgx hands back timestamps in the local zone; the API speaks UTC.
func normalize(record *models.SessionRecord) *models.SessionRecord {
	record.Date = record.Date.UTC()
	return record
}
