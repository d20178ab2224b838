package qformat_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-mcsaon/internal/qformat"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

func def(mode question.Mode) question.Definition {
	d := question.NewDefinition("Q1", mode, []question.Option{
		{Text: "<p>2</p>", Format: "html", Fraction: 0.5, Feedback: "prime"},
		{Text: "<p>3</p>", Format: "html", Fraction: 0.5},
		{Text: "<p>4</p>", Format: "html", Fraction: 0},
	})
	d.Name = "Primes"
	d.TextHTML = "<p>Which are prime?</p>"
	d.Shuffle = true
	d.Numbering = "ABCD"
	d.Feedback = question.CombinedFeedback{Correct: "yes", PartiallyCorrect: "almost", Incorrect: "no"}
	return d
}

func TestXML_RoundTripAllModes(t *testing.T) {
	for _, mode := range []question.Mode{question.ModeSingle, question.ModeMultiplePartial, question.ModeMultipleAllOrNothing} {
		t.Run(mode.String(), func(t *testing.T) {
			in := def(mode)
			var buf bytes.Buffer
			if err := qformat.Export(&buf, in); err != nil {
				t.Fatal(err)
			}
			res, err := qformat.Import(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Questions) != 1 {
				t.Fatalf("got %d questions", len(res.Questions))
			}
			got := res.Questions[0]
			if got.Mode != mode {
				t.Fatalf("mode %v, want %v", got.Mode, mode)
			}
			if got.Name != in.Name || got.TextHTML != in.TextHTML || got.Shuffle != in.Shuffle ||
				got.Numbering != "ABCD" || got.Feedback != in.Feedback {
				t.Fatalf("header mismatch: %+v", got)
			}
			for i, o := range got.Options {
				w := in.Options[i]
				if o.Text != w.Text || o.Fraction != w.Fraction || o.Feedback != w.Feedback || o.Format != w.Format {
					t.Fatalf("option %d: %+v, want %+v", i, o, w)
				}
			}
		})
	}
}

func TestXML_SingleTag(t *testing.T) {
	cases := map[question.Mode]string{
		question.ModeSingle:               "<single>true</single>",
		question.ModeMultiplePartial:      "<single>false</single>",
		question.ModeMultipleAllOrNothing: "<single>aon</single>",
	}
	for mode, want := range cases {
		var buf bytes.Buffer
		if err := qformat.Export(&buf, def(mode)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), want) {
			t.Errorf("%v: %q not in output", mode, want)
		}
		if !strings.Contains(buf.String(), `fraction="50"`) {
			t.Errorf("%v: fractions should be percentages", mode)
		}
	}
}

func TestXML_ExportUnknownModeFails(t *testing.T) {
	d := def(question.ModeUnknown)
	if err := qformat.Export(&bytes.Buffer{}, d); !errors.Is(err, question.ErrUnknownMode) {
		t.Fatalf("want ErrUnknownMode, got %v", err)
	}
}

const legacy = `<?xml version="1.0" encoding="UTF-8"?>
<quiz>
  <question type="category"><category><text>$course$/Default</text></category></question>
  <question type="mcsaon">
    <name><text>Old</text></name>
    <questiontext format="html"><text>Pick</text></questiontext>
    <single>AON</single>
    <shuffleanswers>1</shuffleanswers>
    <answernumbering></answernumbering>
    <answer fraction="100"><text>A</text></answer>
    <answer fraction="0"><text>B</text></answer>
  </question>
  <question type="multichoice">
    <name><text>Plain</text></name>
    <answer fraction="33.33333"><text>A</text></answer>
    <answer fraction="66.66667"><text>B</text></answer>
  </question>
  <question type="mcsaon">
    <single>maybe</single>
    <answer fraction="100"><text>A</text></answer>
  </question>
</quiz>`

func TestXML_ImportLegacy(t *testing.T) {
	res, err := qformat.Import(strings.NewReader(legacy))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Questions) != 2 || len(res.Skipped) != 2 {
		t.Fatalf("questions=%d skipped=%+v", len(res.Questions), res.Skipped)
	}
	old := res.Questions[0]
	if old.Mode != question.ModeMultipleAllOrNothing || !old.Shuffle || old.Numbering != question.DefaultNumbering {
		t.Fatalf("legacy mcsaon: %+v", old)
	}
	plain := res.Questions[1]
	// no <single> tag defaults to single choice
	if plain.Mode != question.ModeSingle {
		t.Fatalf("multichoice without tag: %v", plain.Mode)
	}
	if res.Skipped[0].Type != "category" || res.Skipped[1].Index != 3 {
		t.Fatalf("skipped: %+v", res.Skipped)
	}
}

func TestXML_ImportNothing(t *testing.T) {
	_, err := qformat.Import(strings.NewReader(`<quiz><question type="essay"/></quiz>`))
	if !errors.Is(err, qformat.ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
	if _, err := qformat.Import(strings.NewReader("not xml")); err == nil {
		t.Fatal("expected decode error")
	}
}

const yamlOne = `
id: primes
name: Primes
text: <p>Which are prime?</p>
mode: aon
options:
  - {id: a, text: "2", fraction: 0.5}
  - {id: b, text: "3", fraction: 0.5}
  - {id: c, text: "4", fraction: 0}
`

const yamlMany = `
questions:
  - id: one
    mode: multiple_partial
    options:
      - {text: A, fraction: 1}
      - {text: B, fraction: 0}
  - id: two
    mode: "true"
    numbering: "123"
    options:
      - {text: A, fraction: 1}
      - {text: B, fraction: 0}
`

func TestYAML_Load(t *testing.T) {
	defs, err := qformat.LoadYAML(strings.NewReader(yamlOne))
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 || defs[0].Mode != question.ModeMultipleAllOrNothing || len(defs[0].Options) != 3 ||
		defs[0].TextHTML != "<p>Which are prime?</p>" || defs[0].Numbering != question.DefaultNumbering {
		t.Fatalf("one: %+v", defs)
	}

	defs, err = qformat.LoadYAML(strings.NewReader(yamlMany))
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 || defs[0].Mode != question.ModeMultiplePartial || defs[1].Mode != question.ModeSingle || defs[1].Numbering != "123" {
		t.Fatalf("many: %+v", defs)
	}
}

func TestYAML_Errors(t *testing.T) {
	if _, err := qformat.LoadYAML(strings.NewReader("mode: sometimes\n")); !errors.Is(err, question.ErrUnknownMode) {
		t.Fatalf("bad mode: %v", err)
	}
	if _, err := qformat.LoadYAML(strings.NewReader("name: x\ncolour: red\n")); err == nil {
		t.Fatal("unknown field should fail")
	}
	if _, err := qformat.LoadYAML(strings.NewReader("name: only\n")); !errors.Is(err, qformat.ErrNoQuestions) {
		t.Fatalf("empty: %v", err)
	}
}

func TestYAML_WriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := qformat.WriteYAML(&buf, def(question.ModeMultipleAllOrNothing), def(question.ModeSingle)); err != nil {
		t.Fatal(err)
	}
	defs, err := qformat.LoadYAML(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 || defs[0].Mode != question.ModeMultipleAllOrNothing || defs[1].Options[0].Feedback != "prime" {
		t.Fatalf("round trip: %+v", defs)
	}
}

func TestXML_ImportSkipsFractionOutOfRange(t *testing.T) {
	for _, frac := range []string{"NaN", "Inf", "-Inf", "500", "-100.5"} {
		t.Run(frac, func(t *testing.T) {
			doc := `<quiz>
  <question type="mcsaon">
    <single>false</single>
    <answer fraction="100"><text>A</text></answer>
    <answer fraction="` + frac + `"><text>B</text></answer>
  </question>
  <question type="mcsaon">
    <single>false</single>
    <answer fraction="100"><text>A</text></answer>
    <answer fraction="-100"><text>B</text></answer>
  </question>
</quiz>`
			res, err := qformat.Import(strings.NewReader(doc))
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Questions) != 1 || len(res.Skipped) != 1 || res.Skipped[0].Index != 0 {
				t.Fatalf("questions=%d skipped=%+v", len(res.Questions), res.Skipped)
			}
			if !strings.Contains(res.Skipped[0].Reason, qformat.ErrFractionRange.Error()) {
				t.Fatalf("reason %q", res.Skipped[0].Reason)
			}
		})
	}
}

func TestYAML_FractionOutOfRange(t *testing.T) {
	for _, frac := range []string{".nan", ".inf", "5", "-1.5"} {
		doc := "mode: multiple_partial\noptions:\n  - {text: A, fraction: 1}\n  - {text: B, fraction: " + frac + "}\n"
		if _, err := qformat.LoadYAML(strings.NewReader(doc)); !errors.Is(err, qformat.ErrFractionRange) {
			t.Fatalf("%s: want ErrFractionRange, got %v", frac, err)
		}
	}
}
