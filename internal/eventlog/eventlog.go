// Package eventlog is an append-only record of question changes and graded
// responses, read back by offset for analysis.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeSaved   = "question.saved"
	TypeDeleted = "question.deleted"
	TypeGraded  = "response.graded"
)

type Event struct {
	Offset     int64           `json:"offset"`
	Type       string          `json:"type"`
	QuestionID string          `json:"question_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// Recorder is what producers of events depend on.
type Recorder interface {
	Append(ctx context.Context, typ, questionID string, data any) error
}

type Reader interface {
	Since(ctx context.Context, after int64, questionID string, limit int) ([]Event, error)
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, questionID string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, question_id, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, questionID, string(b), time.Now().Unix())
	return err
}

// Since returns up to limit events with an offset greater than after, oldest
// first. An empty questionID matches every question.
func (r *Repo) Since(ctx context.Context, after int64, questionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT offset_id, typ, question_id, data, created_at
		   FROM event_log
		  WHERE offset_id > $1 AND (CAST($2 AS TEXT) = '' OR question_id = $2)
		  ORDER BY offset_id
		  LIMIT $3`,
		after, questionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Offset, &e.Type, &e.QuestionID, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
