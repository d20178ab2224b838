// Package restore brings backed-up questions back into a bank under fresh
// identifiers and remaps stored answer sequences to the new ids.
package restore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-mcsaon/internal/bank"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// Mapping kinds.
const (
	KindQuestion = "question"
	KindAnswer   = "question_answer"
)

// Mapper resolves an old identifier of the given kind to its new value.
type Mapper interface {
	MapID(kind, oldID string) (string, bool)
}

// MappingTable is an in-memory Mapper filled while restoring.
type MappingTable struct {
	mu sync.RWMutex
	m  map[string]map[string]string
}

func NewMappingTable() *MappingTable {
	return &MappingTable{m: map[string]map[string]string{}}
}

func (t *MappingTable) Set(kind, oldID, newID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k, ok := t.m[kind]
	if !ok {
		k = map[string]string{}
		t.m[kind] = k
	}
	k[oldID] = newID
}

func (t *MappingTable) MapID(kind, oldID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[kind][oldID]
	return v, ok
}

// RemapSequence maps every entry of a delimited answer id list through m,
// keeping order. Unmapped entries become empty, so positions never shift.
func RemapSequence(seq string, m Mapper) string {
	ids := bank.SplitSequence(seq)
	for i, old := range ids {
		nid, _ := m.MapID(KindAnswer, old)
		ids[i] = nid
	}
	return bank.JoinSequence(ids)
}

// Record is the backup form of one question.
type Record struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name,omitempty"`
	TextHTML  string                    `json:"text_html,omitempty"`
	Single    int                       `json:"single"`
	Shuffle   bool                      `json:"shuffleanswers"`
	Numbering string                    `json:"answernumbering,omitempty"`
	Feedback  question.CombinedFeedback `json:"feedback"`
	Answers   []AnswerRecord            `json:"answers"`
	Sequence  string                    `json:"sequence"` // comma-joined answer ids
}

type AnswerRecord struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Format   string  `json:"format,omitempty"`
	Fraction float64 `json:"fraction"`
	Feedback string  `json:"feedback,omitempty"`
}

// ToRecord converts a definition into its backup form.
func ToRecord(d question.Definition) (Record, error) {
	flag, err := d.Mode.Flag()
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID: d.ID, Name: d.Name, TextHTML: d.TextHTML, Single: flag,
		Shuffle: d.Shuffle, Numbering: d.Numbering, Feedback: d.Feedback,
		Sequence: bank.JoinSequence(d.AnswerIDs()),
	}
	for _, o := range d.Options {
		rec.Answers = append(rec.Answers, AnswerRecord{ID: o.ID, Text: o.Text, Format: o.Format, Fraction: o.Fraction, Feedback: o.Feedback})
	}
	return rec, nil
}

func ReadRecords(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return recs, nil
}

func WriteRecords(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

var ErrSequenceMismatch = errors.New("remapped answer sequence does not match stored order")

// Result is what one backup record became.
type Result struct {
	OldID    string `json:"old_id"`
	NewID    string `json:"new_id"`
	Sequence string `json:"sequence"` // backed-up sequence remapped to the new answer ids

	Question question.Definition `json:"-"`
}

// Restorer creates questions from backup records. Restored questions are not
// re-validated; they were valid when backed up. A Restorer holds no mapping
// state, so one value can serve concurrent runs.
type Restorer struct {
	Store bank.Store
	Log   *zap.Logger
}

func NewRestorer(store bank.Store, log *zap.Logger) *Restorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Restorer{Store: store, Log: log}
}

// Run restores recs in order, sharing one mapping table for the run. It stops
// at the first failure and returns the results restored so far.
func (r *Restorer) Run(ctx context.Context, recs []Record) ([]Result, *MappingTable, error) {
	m := NewMappingTable()
	out := make([]Result, 0, len(recs))
	for _, rec := range recs {
		res, err := r.Restore(ctx, rec, m)
		if err != nil {
			return out, m, err
		}
		out = append(out, res)
	}
	return out, m, nil
}

// Restore stores rec as a new question and records its id mappings in m.
// Options are stored in the order of the backed-up sequence.
func (r *Restorer) Restore(ctx context.Context, rec Record, m *MappingTable) (Result, error) {
	mode, err := question.ModeFromFlag(rec.Single)
	if err != nil {
		return Result{}, fmt.Errorf("restore %q: %w", rec.ID, err)
	}

	// Blank answers are not stored, so they cannot be mapped.
	kept := make([]AnswerRecord, 0, len(rec.Answers))
	opts := make([]question.Option, 0, len(rec.Answers))
	for _, a := range orderBySequence(rec.Answers, bank.SplitSequence(rec.Sequence)) {
		o := question.Option{Text: a.Text, Format: a.Format, Fraction: a.Fraction, Feedback: a.Feedback}
		if o.Blank() {
			continue
		}
		kept = append(kept, a)
		opts = append(opts, o)
	}

	def := question.NewDefinition("", mode, opts)
	def.Name, def.TextHTML = rec.Name, rec.TextHTML
	def.Shuffle, def.Feedback = rec.Shuffle, rec.Feedback
	if rec.Numbering != "" {
		def.Numbering = rec.Numbering
	}
	saved, err := r.Store.Save(ctx, def)
	if err != nil {
		return Result{}, fmt.Errorf("restore %q: %w", rec.ID, err)
	}

	m.Set(KindQuestion, rec.ID, saved.ID)
	for i, a := range kept {
		m.Set(KindAnswer, a.ID, saved.Options[i].ID)
	}
	seq := RemapSequence(rec.Sequence, m)
	if complete(seq, len(saved.Options)) && seq != bank.JoinSequence(saved.AnswerIDs()) {
		if err := r.Store.Delete(ctx, saved.ID); err != nil {
			r.Log.Error("rollback of restored question failed", zap.String("new_id", saved.ID), zap.Error(err))
		}
		return Result{}, fmt.Errorf("restore %q: %w: %q", rec.ID, ErrSequenceMismatch, seq)
	}

	r.Log.Info("question restored",
		zap.String("old_id", rec.ID),
		zap.String("new_id", saved.ID),
		zap.String("sequence", seq),
		zap.Int("answers", len(saved.Options)))
	return Result{OldID: rec.ID, NewID: saved.ID, Sequence: seq, Question: saved}, nil
}

// complete reports whether seq maps every one of n stored answers.
func complete(seq string, n int) bool {
	ids := bank.SplitSequence(seq)
	if len(ids) != n {
		return false
	}
	for _, id := range ids {
		if id == "" {
			return false
		}
	}
	return true
}

// Duplicate copies an existing question under new identifiers.
func (r *Restorer) Duplicate(ctx context.Context, id string) (question.Definition, error) {
	d, err := r.Store.Get(ctx, id)
	if err != nil {
		return question.Definition{}, err
	}
	rec, err := ToRecord(d)
	if err != nil {
		return question.Definition{}, err
	}
	res, err := r.Restore(ctx, rec, NewMappingTable())
	if err != nil {
		return question.Definition{}, err
	}
	return res.Question, nil
}

// orderBySequence returns answers in sequence order, followed by any answer
// the sequence did not mention.
func orderBySequence(answers []AnswerRecord, seq []string) []AnswerRecord {
	byID := make(map[string]AnswerRecord, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
	}
	out := make([]AnswerRecord, 0, len(answers))
	used := map[string]bool{}
	for _, id := range seq {
		if a, ok := byID[id]; ok && id != "" && !used[id] {
			out = append(out, a)
			used[id] = true
		}
	}
	for _, a := range answers {
		if !used[a.ID] {
			out = append(out, a)
		}
	}
	return out
}
