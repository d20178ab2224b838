// Package qformat reads and writes question definitions in the Moodle-style
// XML exchange format and in YAML definition files.
package qformat

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

const (
	TypeMCSAON      = "mcsaon"
	TypeMultichoice = "multichoice"
)

var (
	ErrNoQuestions   = errors.New("no importable questions")
	ErrFractionRange = errors.New("fraction must be between -100 and 100 percent")
)

// ---- XML model ----

type quiz struct {
	XMLName   xml.Name  `xml:"quiz"`
	Questions []xmlItem `xml:"question"`
}

type xmlText struct {
	Format string `xml:"format,attr,omitempty"`
	Text   string `xml:"text"`
}

type xmlAnswer struct {
	Fraction string   `xml:"fraction,attr"`
	Format   string   `xml:"format,attr,omitempty"`
	Text     string   `xml:"text"`
	Feedback *xmlText `xml:"feedback,omitempty"`
}

type xmlItem struct {
	Type                     string      `xml:"type,attr"`
	Name                     *xmlText    `xml:"name,omitempty"`
	QuestionText             *xmlText    `xml:"questiontext,omitempty"`
	IDNumber                 string      `xml:"idnumber,omitempty"`
	Single                   string      `xml:"single,omitempty"`
	ShuffleAnswers           string      `xml:"shuffleanswers,omitempty"`
	AnswerNumbering          *string     `xml:"answernumbering"`
	CorrectFeedback          *xmlText    `xml:"correctfeedback,omitempty"`
	PartiallyCorrectFeedback *xmlText    `xml:"partiallycorrectfeedback,omitempty"`
	IncorrectFeedback        *xmlText    `xml:"incorrectfeedback,omitempty"`
	Answers                  []xmlAnswer `xml:"answer"`
}

// Skipped describes a question element Import did not turn into a definition.
type Skipped struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ImportResult lists imported definitions in document order.
type ImportResult struct {
	Questions []question.Definition `json:"questions"`
	Skipped   []Skipped             `json:"skipped,omitempty"`
}

// Export writes defs as a <quiz> document.
func Export(w io.Writer, defs ...question.Definition) error {
	q := quiz{}
	for _, d := range defs {
		it, err := toItem(d)
		if err != nil {
			return fmt.Errorf("export %q: %w", d.ID, err)
		}
		q.Questions = append(q.Questions, it)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(q); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toItem(d question.Definition) (xmlItem, error) {
	tag, err := d.Mode.Tag()
	if err != nil {
		return xmlItem{}, err
	}
	numbering := d.Numbering
	if numbering == "" {
		numbering = question.DefaultNumbering
	}
	it := xmlItem{
		Type:                     TypeMCSAON,
		Name:                     &xmlText{Text: d.Name},
		QuestionText:             &xmlText{Format: "html", Text: d.TextHTML},
		IDNumber:                 d.ID,
		Single:                   tag,
		ShuffleAnswers:           strconv.FormatBool(d.Shuffle),
		AnswerNumbering:          &numbering,
		CorrectFeedback:          &xmlText{Format: "html", Text: d.Feedback.Correct},
		PartiallyCorrectFeedback: &xmlText{Format: "html", Text: d.Feedback.PartiallyCorrect},
		IncorrectFeedback:        &xmlText{Format: "html", Text: d.Feedback.Incorrect},
	}
	for _, o := range d.Options {
		a := xmlAnswer{
			Fraction: formatPercent(o.Fraction),
			Format:   o.Format,
			Text:     o.Text,
		}
		if a.Format == "" {
			a.Format = "html"
		}
		if o.Feedback != "" {
			a.Feedback = &xmlText{Format: "html", Text: o.Feedback}
		}
		it.Answers = append(it.Answers, a)
	}
	return it, nil
}

// Import reads a <quiz> document. Questions of type mcsaon are read with
// their <single> tag; plain multichoice questions are read the same way, so
// their true/false tags map to single and partial mode. Other types and
// malformed questions are reported in Skipped.
func Import(r io.Reader) (ImportResult, error) {
	var q quiz
	if err := xml.NewDecoder(r).Decode(&q); err != nil {
		return ImportResult{}, fmt.Errorf("decode quiz: %w", err)
	}
	res := ImportResult{}
	for i, it := range q.Questions {
		switch it.Type {
		case TypeMCSAON, TypeMultichoice:
		default:
			res.Skipped = append(res.Skipped, Skipped{Index: i, Type: it.Type, Reason: "unsupported question type"})
			continue
		}
		d, err := fromItem(it)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: i, Type: it.Type, Reason: err.Error()})
			continue
		}
		res.Questions = append(res.Questions, d)
	}
	if len(res.Questions) == 0 {
		return res, ErrNoQuestions
	}
	return res, nil
}

func fromItem(it xmlItem) (question.Definition, error) {
	single := strings.TrimSpace(it.Single)
	if single == "" {
		single = question.TagSingle
	}
	mode, err := question.ParseModeTag(single)
	if err != nil {
		return question.Definition{}, err
	}

	opts := make([]question.Option, 0, len(it.Answers))
	for _, a := range it.Answers {
		frac, err := parsePercent(a.Fraction)
		if err != nil {
			return question.Definition{}, fmt.Errorf("answer fraction %q: %w", a.Fraction, err)
		}
		o := question.Option{Text: a.Text, Format: a.Format, Fraction: frac}
		if a.Feedback != nil {
			o.Feedback = a.Feedback.Text
		}
		opts = append(opts, o)
	}

	d := question.NewDefinition(strings.TrimSpace(it.IDNumber), mode, opts)
	d.Name = textOf(it.Name)
	d.TextHTML = textOf(it.QuestionText)
	d.Shuffle = parseBool(it.ShuffleAnswers)
	if it.AnswerNumbering != nil {
		d.Numbering = strings.TrimSpace(*it.AnswerNumbering)
	}
	// Older exports wrote an empty numbering tag.
	if d.Numbering == "" {
		d.Numbering = question.DefaultNumbering
	}
	d.Feedback = question.CombinedFeedback{
		Correct:          textOf(it.CorrectFeedback),
		PartiallyCorrect: textOf(it.PartiallyCorrectFeedback),
		Incorrect:        textOf(it.IncorrectFeedback),
	}
	return d, nil
}

func textOf(t *xmlText) string {
	if t == nil {
		return ""
	}
	return t.Text
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	}
	return false
}

// Fractions are exchanged as percentages.
func formatPercent(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e7)/1e5, 'f', -1, 64)
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	f := p / 100
	if !question.ValidFraction(f) {
		return 0, ErrFractionRange
	}
	return f, nil
}
