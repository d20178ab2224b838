package grading

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// NoResponseKey is the response-class id used for "nothing selected" on
// single-answer questions.
const NoResponseKey = ""

type PossibleResponse struct {
	Text     string  `json:"text"`
	Fraction float64 `json:"fraction"`
}

var NoResponse = PossibleResponse{Text: "[No response]", Fraction: 0}

// Classes groups possible responses by sub-question id, then response class id.
type Classes map[string]map[string]PossibleResponse

// PossibleResponses lists every response class of def with the credit it is
// worth on its own. Single-answer questions form one sub-question keyed by the
// question id. Multi-select questions report one sub-question per option, so
// each option's contribution is independent of the others whatever the mode.
func PossibleResponses(def question.Definition) (Classes, error) {
	switch {
	case def.Mode == question.ModeSingle:
		resp := make(map[string]PossibleResponse, len(def.Options)+1)
		for _, o := range def.Options {
			resp[o.ID] = PossibleResponse{Text: PlainText(o.Text), Fraction: o.Fraction}
		}
		resp[NoResponseKey] = NoResponse
		return Classes{def.ID: resp}, nil
	case def.Mode.Multiple():
		parts := make(Classes, len(def.Options))
		for _, o := range def.Options {
			parts[o.ID] = map[string]PossibleResponse{
				o.ID: {Text: PlainText(o.Text), Fraction: o.Fraction},
			}
		}
		return parts, nil
	}
	return nil, question.ErrUnknownMode
}

// RandomGuessScore is the expected fraction of a uniformly random single
// choice. It is not computed for multi-select questions.
func RandomGuessScore(def question.Definition) (float64, bool) {
	if def.Mode != question.ModeSingle || len(def.Options) == 0 {
		return 0, false
	}
	total := 0.0
	for _, o := range def.Options {
		total += o.Fraction
	}
	return total / float64(len(def.Options)), true
}

// PlainText strips markup from option HTML and collapses whitespace.
func PlainText(in string) string {
	z := html.NewTokenizer(strings.NewReader(in))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		}
	}
}
