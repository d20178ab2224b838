package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Get(ctx context.Context, id string) (question.Definition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.name, q.text_html, m.answers, m.single, m.shuffle_answers, m.answer_numbering,
		       m.correct_feedback, m.partially_correct_feedback, m.incorrect_feedback
		FROM questions q JOIN question_mcsaon m ON m.question_id = q.id
		WHERE q.id=$1`, id)

	var (
		d       question.Definition
		seq     string
		single  int
		shuffle int
	)
	if err := row.Scan(&d.ID, &d.Name, &d.TextHTML, &seq, &single, &shuffle, &d.Numbering,
		&d.Feedback.Correct, &d.Feedback.PartiallyCorrect, &d.Feedback.Incorrect); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return question.Definition{}, ErrNotFound
		}
		return question.Definition{}, err
	}
	mode, err := question.ModeFromFlag(single)
	if err != nil {
		return question.Definition{}, fmt.Errorf("load %q: %w", id, err)
	}
	d.Mode = mode
	d.Shuffle = shuffle != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, answer, answer_format, fraction, feedback FROM question_answers WHERE question_id=$1`, id)
	if err != nil {
		return question.Definition{}, err
	}
	defer rows.Close()
	byID := map[string]question.Option{}
	for rows.Next() {
		var o question.Option
		if err := rows.Scan(&o.ID, &o.Text, &o.Format, &o.Fraction, &o.Feedback); err != nil {
			return question.Definition{}, err
		}
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return question.Definition{}, err
	}

	// presentation order comes from the stored sequence
	for _, aid := range SplitSequence(seq) {
		o, ok := byID[aid]
		if !ok {
			return question.Definition{}, fmt.Errorf("load %q: answer %q in sequence has no row", id, aid)
		}
		d.Options = append(d.Options, o)
	}
	return d, nil
}

func (s *SQLStore) Save(ctx context.Context, def question.Definition) (question.Definition, error) {
	flag, err := def.Mode.Flag()
	if err != nil {
		return question.Definition{}, fmt.Errorf("save %q: %w", def.ID, err)
	}
	if def.ID == "" {
		def.ID = NewID()
	}
	if def.Numbering == "" {
		def.Numbering = question.DefaultNumbering
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return question.Definition{}, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id,name,text_html,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, text_html=EXCLUDED.text_html, updated_at=EXCLUDED.updated_at`,
		def.ID, def.Name, def.TextHTML, now); err != nil {
		return question.Definition{}, err
	}

	var oldSeq string
	err = tx.QueryRowContext(ctx, `SELECT answers FROM question_mcsaon WHERE question_id=$1`, def.ID).Scan(&oldSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return question.Definition{}, err
	}
	old := SplitSequence(oldSeq)
	opts, leftover := assignAnswerIDs(old, def.Options)
	reused := len(old) - len(leftover)

	for i, o := range opts {
		if o.Format == "" {
			o.Format = "html"
			opts[i].Format = o.Format
		}
		if i < reused {
			_, err = tx.ExecContext(ctx, `UPDATE question_answers SET answer=$1, answer_format=$2, fraction=$3, feedback=$4
				WHERE id=$5`, o.Text, o.Format, o.Fraction, o.Feedback, o.ID)
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO question_answers (id,question_id,answer,answer_format,fraction,feedback)
				VALUES ($1,$2,$3,$4,$5,$6)`, o.ID, def.ID, o.Text, o.Format, o.Fraction, o.Feedback)
		}
		if err != nil {
			return question.Definition{}, err
		}
	}
	for _, aid := range leftover {
		if _, err := tx.ExecContext(ctx, `DELETE FROM question_answers WHERE id=$1`, aid); err != nil {
			return question.Definition{}, err
		}
	}

	def.Options = opts
	if _, err := tx.ExecContext(ctx, `INSERT INTO question_mcsaon
		(question_id,answers,single,shuffle_answers,answer_numbering,correct_feedback,partially_correct_feedback,incorrect_feedback)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (question_id) DO UPDATE SET answers=EXCLUDED.answers, single=EXCLUDED.single,
		  shuffle_answers=EXCLUDED.shuffle_answers, answer_numbering=EXCLUDED.answer_numbering,
		  correct_feedback=EXCLUDED.correct_feedback, partially_correct_feedback=EXCLUDED.partially_correct_feedback,
		  incorrect_feedback=EXCLUDED.incorrect_feedback`,
		def.ID, JoinSequence(def.AnswerIDs()), flag, boolInt(def.Shuffle), def.Numbering,
		def.Feedback.Correct, def.Feedback.PartiallyCorrect, def.Feedback.Incorrect); err != nil {
		return question.Definition{}, err
	}

	if err := tx.Commit(); err != nil {
		return question.Definition{}, err
	}
	return def, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM question_answers WHERE question_id=$1`,
		`DELETE FROM question_mcsaon WHERE question_id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.name, m.single, m.answers, q.updated_at
		FROM questions q JOIN question_mcsaon m ON m.question_id = q.id
		WHERE (CAST($1 AS TEXT) = '' OR LOWER(q.name) LIKE '%' || LOWER(CAST($1 AS TEXT)) || '%')
		ORDER BY q.updated_at DESC, q.id
		LIMIT $2 OFFSET $3`, opts.Q, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sm     Summary
			single int
			seq    string
		)
		if err := rows.Scan(&sm.ID, &sm.Name, &single, &seq, &sm.UpdatedAt); err != nil {
			return nil, err
		}
		if sm.Mode, err = question.ModeFromFlag(single); err != nil {
			return nil, fmt.Errorf("list %q: %w", sm.ID, err)
		}
		sm.Answers = len(SplitSequence(seq))
		out = append(out, sm)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
