package bank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

var ErrNotFound = errors.New("question not found")

// SequenceDelim separates answer ids in the stored answer sequence.
const SequenceDelim = ","

type ListOpts struct {
	Q      string // substring match on name
	Limit  int
	Offset int
}

type Summary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Mode      question.Mode `json:"mode"`
	Answers   int           `json:"answers"`
	UpdatedAt int64         `json:"updated_at"`
}

// Store persists question definitions. Save assigns ids: an empty question id
// gets a fresh one, and answer rows are reused positionally from the stored
// sequence, with new ids for extra options and surplus rows dropped. Blank
// options are not stored.
type Store interface {
	Get(ctx context.Context, id string) (question.Definition, error)
	Save(ctx context.Context, def question.Definition) (question.Definition, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOpts) ([]Summary, error)
}

func NewID() string { return uuid.NewString() }

// assignAnswerIDs keeps non-blank options in order and gives them ids taken
// from old (in order), then fresh ones. It returns the ids that were not
// reused.
func assignAnswerIDs(old []string, opts []question.Option) ([]question.Option, []string) {
	out := make([]question.Option, 0, len(opts))
	next := 0
	for _, o := range opts {
		if o.Blank() {
			continue
		}
		if next < len(old) {
			o.ID = old[next]
			next++
		} else {
			o.ID = NewID()
		}
		out = append(out, o)
	}
	return out, old[next:]
}

func JoinSequence(ids []string) string { return strings.Join(ids, SequenceDelim) }

func SplitSequence(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, SequenceDelim)
}

// ---- in-memory ----

type memoryStore struct {
	mu      sync.RWMutex
	defs    map[string]question.Definition
	updated map[string]int64
}

func NewInMemoryStore() Store {
	return &memoryStore{
		defs:    map[string]question.Definition{},
		updated: map[string]int64{},
	}
}

func (m *memoryStore) Get(_ context.Context, id string) (question.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.defs[id]
	if !ok {
		return question.Definition{}, ErrNotFound
	}
	return clone(d), nil
}

func (m *memoryStore) Save(_ context.Context, def question.Definition) (question.Definition, error) {
	if !def.Mode.Valid() {
		return question.Definition{}, fmt.Errorf("save %q: %w", def.ID, question.ErrUnknownMode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if def.ID == "" {
		def.ID = NewID()
	}
	var old []string
	if prev, ok := m.defs[def.ID]; ok {
		old = prev.AnswerIDs()
	}
	def.Options, _ = assignAnswerIDs(old, def.Options)
	if def.Numbering == "" {
		def.Numbering = question.DefaultNumbering
	}
	m.defs[def.ID] = clone(def)
	m.updated[def.ID] = time.Now().Unix()
	return clone(def), nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defs[id]; !ok {
		return ErrNotFound
	}
	delete(m.defs, id)
	delete(m.updated, id)
	return nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.defs))
	q := strings.ToLower(opts.Q)
	for id, d := range m.defs {
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		out = append(out, Summary{ID: id, Name: d.Name, Mode: d.Mode, Answers: len(d.Options), UpdatedAt: m.updated[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func page(in []Summary, limit, offset int) []Summary {
	if offset > len(in) {
		return []Summary{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func clone(d question.Definition) question.Definition {
	out := d
	out.Options = append([]question.Option(nil), d.Options...)
	return out
}
