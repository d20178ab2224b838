package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:mcsaon.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mcsaon?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// question_mcsaon.answers holds the comma-joined answer ids in presentation
// order; question_answers rows carry no position of their own.
const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  text_html TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS question_answers (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer TEXT NOT NULL,
  answer_format TEXT NOT NULL DEFAULT 'html',
  fraction REAL NOT NULL DEFAULT 0,
  feedback TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS question_mcsaon (
  question_id TEXT PRIMARY KEY REFERENCES questions(id) ON DELETE CASCADE,
  answers TEXT NOT NULL DEFAULT '',
  single INTEGER NOT NULL DEFAULT 0,
  shuffle_answers INTEGER NOT NULL DEFAULT 1,
  answer_numbering TEXT NOT NULL DEFAULT 'abc',
  correct_feedback TEXT NOT NULL DEFAULT '',
  partially_correct_feedback TEXT NOT NULL DEFAULT '',
  incorrect_feedback TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_question_answers_question ON question_answers(question_id);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  question_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_log_question ON event_log(question_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  text_html TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS question_answers (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer TEXT NOT NULL,
  answer_format TEXT NOT NULL DEFAULT 'html',
  fraction DOUBLE PRECISION NOT NULL DEFAULT 0,
  feedback TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS question_mcsaon (
  question_id TEXT PRIMARY KEY REFERENCES questions(id) ON DELETE CASCADE,
  answers TEXT NOT NULL DEFAULT '',
  single SMALLINT NOT NULL DEFAULT 0,
  shuffle_answers SMALLINT NOT NULL DEFAULT 1,
  answer_numbering TEXT NOT NULL DEFAULT 'abc',
  correct_feedback TEXT NOT NULL DEFAULT '',
  partially_correct_feedback TEXT NOT NULL DEFAULT '',
  incorrect_feedback TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_question_answers_question ON question_answers(question_id);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  question_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_log_question ON event_log(question_id);
`
