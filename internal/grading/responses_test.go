package grading_test

import (
	"testing"

	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

func TestPossibleResponses_Single(t *testing.T) {
	def := question.NewDefinition("q7", question.ModeSingle, []question.Option{
		{ID: "a", Text: "<p>Paris</p>", Fraction: 1},
		{ID: "b", Text: "Lyon &amp; Nice", Fraction: 0},
	})
	got, err := grading.PossibleResponses(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want one sub-question, got %d", len(got))
	}
	resp := got["q7"]
	if len(resp) != 3 {
		t.Fatalf("want 2 choices + no response, got %v", resp)
	}
	if resp["a"] != (grading.PossibleResponse{Text: "Paris", Fraction: 1}) {
		t.Fatalf("a: %+v", resp["a"])
	}
	if resp["b"].Text != "Lyon & Nice" {
		t.Fatalf("b text: %q", resp["b"].Text)
	}
	if resp[grading.NoResponseKey] != grading.NoResponse {
		t.Fatalf("no response entry: %+v", resp[grading.NoResponseKey])
	}
}

func TestPossibleResponses_Multi(t *testing.T) {
	for _, m := range []question.Mode{question.ModeMultiplePartial, question.ModeMultipleAllOrNothing} {
		def := abc(m)
		got, err := grading.PossibleResponses(def)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("%v: want 3 parts, got %d", m, len(got))
		}
		for _, o := range def.Options {
			part := got[o.ID]
			if len(part) != 1 {
				t.Fatalf("%v: part %s has %d entries", m, o.ID, len(part))
			}
			if part[o.ID].Fraction != o.Fraction || part[o.ID].Text != o.Text {
				t.Fatalf("%v: part %s = %+v", m, o.ID, part[o.ID])
			}
		}
	}
}

func TestPossibleResponses_UnknownMode(t *testing.T) {
	if _, err := grading.PossibleResponses(abc(question.ModeUnknown)); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRandomGuessScore(t *testing.T) {
	single := question.NewDefinition("s", question.ModeSingle, []question.Option{
		{ID: "a", Text: "a", Fraction: 1},
		{ID: "b", Text: "b", Fraction: 0},
		{ID: "c", Text: "c", Fraction: 0},
		{ID: "d", Text: "d", Fraction: 0},
	})
	got, ok := grading.RandomGuessScore(single)
	if !ok || got != 0.25 {
		t.Fatalf("single: got %v ok=%v", got, ok)
	}
	if _, ok := grading.RandomGuessScore(abc(question.ModeMultiplePartial)); ok {
		t.Fatal("multi-select should not report a random guess score")
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"plain":                        "plain",
		"<b>bold</b> text":             "bold text",
		"line<br/>break":               "line break",
		"  spaced\n\tout  ":            "spaced out",
		"<p>x &lt; y</p><p>second</p>": "x < y second",
	}
	for in, want := range cases {
		if got := grading.PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}
