package grading_test

import (
	"errors"
	"math"
	"testing"

	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

func abc(mode question.Mode) question.Definition {
	return question.NewDefinition("q1", mode, []question.Option{
		{ID: "A", Text: "alpha", Fraction: 0.5},
		{ID: "B", Text: "beta", Fraction: 0.5},
		{ID: "C", Text: "gamma", Fraction: 0},
	})
}

func TestGrade_AllOrNothing(t *testing.T) {
	g := grading.NewGrader()
	def := abc(question.ModeMultipleAllOrNothing)

	cases := []struct {
		name  string
		resp  question.Response
		want  float64
		state grading.State
	}{
		{"exact correct set", question.Selection("A", "B"), 1, grading.StateCorrect},
		{"missing one correct", question.Selection("A"), 0, grading.StateIncorrect},
		{"extra incorrect", question.Selection("A", "B", "C"), 0, grading.StateIncorrect},
		{"empty", question.Response{}, 0, grading.StateIncorrect},
		{"nil response", nil, 0, grading.StateIncorrect},
		{"explicit false is unselected", question.Response{"A": true, "B": true, "C": false}, 1, grading.StateCorrect},
		{"unknown keys ignored", question.Response{"A": true, "B": true, "zzz": true}, 1, grading.StateCorrect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.Grade(def, tc.resp)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if got.Fraction != tc.want || got.State != tc.state {
				t.Fatalf("got %+v, want fraction=%v state=%v", got, tc.want, tc.state)
			}
		})
	}
}

func TestGrade_Partial(t *testing.T) {
	g := grading.NewGrader()
	def := abc(question.ModeMultiplePartial)

	cases := []struct {
		name  string
		resp  question.Response
		want  float64
		state grading.State
	}{
		{"one of two", question.Selection("A"), 0.5, grading.StatePartiallyCorrect},
		{"both correct", question.Selection("A", "B"), 1, grading.StateCorrect},
		{"all selected", question.Selection("A", "B", "C"), 1, grading.StateCorrect},
		{"empty", question.Response{}, 0, grading.StateIncorrect},
		{"only zero weight", question.Selection("C"), 0, grading.StateIncorrect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.Grade(def, tc.resp)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if got.Fraction != tc.want || got.State != tc.state {
				t.Fatalf("got %+v, want fraction=%v state=%v", got, tc.want, tc.state)
			}
		})
	}
}

func TestGrade_PartialClamps(t *testing.T) {
	g := grading.NewGrader()

	over := question.NewDefinition("over", question.ModeMultiplePartial, []question.Option{
		{ID: "a", Text: "a", Fraction: 0.8},
		{ID: "b", Text: "b", Fraction: 0.8},
	})
	got, _ := g.Grade(over, question.Selection("a", "b"))
	if got.Fraction != 1 {
		t.Fatalf("sum above one should cap at 1, got %v", got.Fraction)
	}

	under := question.NewDefinition("under", question.ModeMultiplePartial, []question.Option{
		{ID: "a", Text: "a", Fraction: 0.5},
		{ID: "b", Text: "b", Fraction: -1},
	})
	got, _ = g.Grade(under, question.Selection("a", "b"))
	if got.Fraction != 0 {
		t.Fatalf("negative sum should floor at 0, got %v", got.Fraction)
	}
}

func TestGrade_AllOrNothingSingleMismatch(t *testing.T) {
	g := grading.NewGrader()
	def := question.NewDefinition("q", question.ModeMultipleAllOrNothing, []question.Option{
		{ID: "a", Text: "a", Fraction: 0.25},
		{ID: "b", Text: "b", Fraction: 0.25},
		{ID: "c", Text: "c", Fraction: 0.5},
		{ID: "d", Text: "d", Fraction: -0.5},
		{ID: "e", Text: "e", Fraction: 0},
	})
	exact := []string{"a", "b", "c"}

	for _, drop := range exact {
		sel := question.Selection(exact...)
		delete(sel, drop)
		if got, _ := g.Grade(def, sel); got.Fraction != 0 {
			t.Fatalf("omitting %s: want 0, got %v", drop, got.Fraction)
		}
	}
	for _, extra := range []string{"d", "e"} {
		sel := question.Selection(append([]string{extra}, exact...)...)
		if got, _ := g.Grade(def, sel); got.Fraction != 0 {
			t.Fatalf("adding %s: want 0, got %v", extra, got.Fraction)
		}
	}
	if got, _ := g.Grade(def, question.Selection(exact...)); got.Fraction != 1 {
		t.Fatalf("exact set: want 1, got %v", got.Fraction)
	}
}

func TestGrade_AllCorrectSelectedBothModes(t *testing.T) {
	g := grading.NewGrader()
	opts := []question.Option{
		{ID: "a", Text: "a", Fraction: 0.5},
		{ID: "b", Text: "b", Fraction: 0.5},
	}
	for _, m := range []question.Mode{question.ModeMultiplePartial, question.ModeMultipleAllOrNothing} {
		got, err := g.Grade(question.NewDefinition("q", m, opts), question.Selection("a", "b"))
		if err != nil || got.Fraction != 1 {
			t.Fatalf("%v: got %+v err=%v", m, got, err)
		}
	}
}

func TestGrade_Idempotent(t *testing.T) {
	g := grading.NewGrader()
	def := abc(question.ModeMultiplePartial)
	resp := question.Selection("A", "C")
	first, _ := g.Grade(def, resp)
	second, _ := g.Grade(def, resp)
	if first != second {
		t.Fatalf("grading not idempotent: %+v vs %+v", first, second)
	}
}

func TestGrade_ModeErrors(t *testing.T) {
	g := grading.NewGrader()

	_, err := g.Grade(abc(question.ModeSingle), question.Selection("A"))
	if !errors.Is(err, grading.ErrSingleModeUnsupported) {
		t.Fatalf("single mode: want ErrSingleModeUnsupported, got %v", err)
	}
	_, err = g.Grade(abc(question.ModeUnknown), question.Selection("A"))
	if !errors.Is(err, question.ErrUnknownMode) {
		t.Fatalf("zero mode: want ErrUnknownMode, got %v", err)
	}
	_, err = g.Grade(abc(question.Mode(42)), question.Selection("A"))
	if !errors.Is(err, question.ErrUnknownMode) {
		t.Fatalf("mode 42: want ErrUnknownMode, got %v", err)
	}
}

func TestGrade_CustomClassifier(t *testing.T) {
	g := grading.NewGrader(grading.WithClassifier(grading.ClassifierFunc(func(f float64) grading.State {
		if f >= 0.5 {
			return grading.StateCorrect
		}
		return grading.StateIncorrect
	})))
	got, _ := g.Grade(abc(question.ModeMultiplePartial), question.Selection("A"))
	if got.State != grading.StateCorrect {
		t.Fatalf("custom classifier not used: %+v", got)
	}
}

func TestDefaultClassifierTolerance(t *testing.T) {
	cases := map[float64]grading.State{
		0:         grading.StateIncorrect,
		0.0000005: grading.StateIncorrect,
		0.3:       grading.StatePartiallyCorrect,
		0.9999995: grading.StateCorrect,
		1:         grading.StateCorrect,
	}
	for f, want := range cases {
		if got := grading.DefaultClassifier.Classify(f); got != want {
			t.Errorf("classify(%v) = %v, want %v", f, got, want)
		}
	}
}

func TestFeedbackFor(t *testing.T) {
	fb := question.CombinedFeedback{Correct: "yes", PartiallyCorrect: "almost", Incorrect: "no"}
	if grading.FeedbackFor(fb, grading.StatePartiallyCorrect) != "almost" {
		t.Fatal("partial feedback")
	}
	if grading.FeedbackFor(fb, grading.StateIncorrect) != "no" {
		t.Fatal("incorrect feedback")
	}
}

func TestGrade_NonFiniteFractionStaysInRange(t *testing.T) {
	g := grading.NewGrader()
	def := question.NewDefinition("nan", question.ModeMultiplePartial, []question.Option{
		{ID: "a", Text: "a", Fraction: 1},
		{ID: "b", Text: "b", Fraction: math.NaN()},
	})
	got, err := g.Grade(def, question.Selection("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Fraction != 0 || got.State != grading.StateIncorrect {
		t.Fatalf("got %+v, want 0 gradedwrong", got)
	}
}
