package question

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// Option is one answer choice. Fraction is the credit in [-1, 1] awarded
// when the option is selected.
type Option struct {
	ID       string  `json:"id" yaml:"id"`
	Text     string  `json:"text" yaml:"text"`
	Format   string  `json:"format,omitempty" yaml:"format,omitempty"` // html|plain|markdown
	Fraction float64 `json:"fraction" yaml:"fraction"`
	Feedback string  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// Blank reports whether the option has no usable text.
func (o Option) Blank() bool { return strings.TrimSpace(o.Text) == "" }

// ValidFraction reports whether f is a finite weight in [-1, 1].
func ValidFraction(f float64) bool {
	return !math.IsNaN(f) && f >= -1 && f <= 1
}

// CombinedFeedback is shown according to the graded state of a response.
type CombinedFeedback struct {
	Correct          string `json:"correct,omitempty" yaml:"correct,omitempty"`
	PartiallyCorrect string `json:"partially_correct,omitempty" yaml:"partially_correct,omitempty"`
	Incorrect        string `json:"incorrect,omitempty" yaml:"incorrect,omitempty"`
}

// Definition is a loaded question. It is treated as immutable once built.
type Definition struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name,omitempty" yaml:"name,omitempty"`
	TextHTML  string           `json:"text_html,omitempty" yaml:"text,omitempty"`
	Mode      Mode             `json:"mode" yaml:"mode"`
	Options   []Option         `json:"options" yaml:"options"`
	Shuffle   bool             `json:"shuffle,omitempty" yaml:"shuffle,omitempty"`
	Numbering string           `json:"numbering,omitempty" yaml:"numbering,omitempty"` // abc|ABCD|123|none
	Feedback  CombinedFeedback `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

const DefaultNumbering = "abc"

// NewDefinition copies opts so later changes to the caller's slice do not
// leak into the definition.
func NewDefinition(id string, mode Mode, opts []Option) Definition {
	cp := make([]Option, len(opts))
	copy(cp, opts)
	return Definition{ID: id, Mode: mode, Options: cp, Numbering: DefaultNumbering}
}

// DuplicateOptionID returns the first non-empty option id used more than once.
func (d Definition) DuplicateOptionID() (string, bool) {
	seen := make(map[string]bool, len(d.Options))
	for _, o := range d.Options {
		if o.ID == "" {
			continue
		}
		if seen[o.ID] {
			return o.ID, true
		}
		seen[o.ID] = true
	}
	return "", false
}

// Option looks up an option by id.
func (d Definition) Option(id string) (Option, bool) {
	for _, o := range d.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// AnswerIDs returns option ids in presentation order.
func (d Definition) AnswerIDs() []string {
	out := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		out = append(out, o.ID)
	}
	return out
}

// Shuffled returns a copy with options permuted for display. The receiver is
// left untouched; when Shuffle is off the copy keeps the stored order.
func (d Definition) Shuffled(rng *rand.Rand) Definition {
	out := d
	out.Options = make([]Option, len(d.Options))
	copy(out.Options, d.Options)
	if d.Shuffle && rng != nil {
		rng.Shuffle(len(out.Options), func(i, j int) {
			out.Options[i], out.Options[j] = out.Options[j], out.Options[i]
		})
	}
	return out
}

// StudentView hides scoring data.
func (d Definition) StudentView() Definition {
	out := d
	out.Options = make([]Option, len(d.Options))
	for i, o := range d.Options {
		out.Options[i] = Option{ID: o.ID, Text: o.Text, Format: o.Format}
	}
	out.Feedback = CombinedFeedback{}
	return out
}

// Response maps option id to its selected flag. Missing ids are unselected.
type Response map[string]bool

func (r Response) Selected(id string) bool { return r[id] }

// Selection builds a Response from a list of selected option ids.
func Selection(ids ...string) Response {
	r := make(Response, len(ids))
	for _, id := range ids {
		r[id] = true
	}
	return r
}

// FieldPrefix is the positional response key prefix: choice0, choice1, ...
const FieldPrefix = "choice"

// PositionalResponse converts positional fields, indexed by presentation
// order of d, into a Response. Empty and "0" values count as unselected and
// keys that do not name a position in d are ignored.
func PositionalResponse(d Definition, fields map[string]string) Response {
	r := Response{}
	for k, v := range fields {
		if !strings.HasPrefix(k, FieldPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(k, FieldPrefix))
		if err != nil || n < 0 || n >= len(d.Options) {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			continue
		}
		r[d.Options[n].ID] = true
	}
	return r
}

// Field returns the positional key of the option at index i.
func Field(i int) string { return FieldPrefix + strconv.Itoa(i) }
