package grading

import (
	"errors"
	"fmt"
	"math"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// ErrSingleModeUnsupported is returned for single-answer questions; those
// are graded by the radio-button grader, not this one.
var ErrSingleModeUnsupported = errors.New("single-answer questions are not graded here")

type State string

const (
	StateCorrect          State = "gradedright"
	StatePartiallyCorrect State = "gradedpartial"
	StateIncorrect        State = "gradedwrong"
)

// Classifier maps a fraction in [0, 1] to a graded state.
type Classifier interface {
	Classify(fraction float64) State
}

type ClassifierFunc func(float64) State

func (f ClassifierFunc) Classify(fraction float64) State { return f(fraction) }

const fractionTolerance = 0.000001

// DefaultClassifier treats anything within 1e-6 of 0 or 1 as wrong or right.
var DefaultClassifier Classifier = ClassifierFunc(func(fraction float64) State {
	switch {
	case fraction < fractionTolerance:
		return StateIncorrect
	case fraction > 1-fractionTolerance:
		return StateCorrect
	default:
		return StatePartiallyCorrect
	}
})

// Outcome is the result of grading one response.
type Outcome struct {
	Fraction float64 `json:"fraction"`
	State    State   `json:"state"`
}

// Grader scores multi-select responses. Implementations are stateless and
// safe for concurrent use.
type Grader interface {
	Grade(def question.Definition, resp question.Response) (Outcome, error)
}

type Option func(*config)

type config struct {
	classifier Classifier
}

func WithClassifier(c Classifier) Option { return func(cfg *config) { cfg.classifier = c } }

type grader struct {
	classify Classifier
}

func NewGrader(opts ...Option) Grader {
	cfg := &config{classifier: DefaultClassifier}
	for _, o := range opts {
		o(cfg)
	}
	return grader{classify: cfg.classifier}
}

func (g grader) Grade(def question.Definition, resp question.Response) (Outcome, error) {
	var fraction float64
	switch def.Mode {
	case question.ModeMultiplePartial:
		fraction = gradePartial(def.Options, resp)
	case question.ModeMultipleAllOrNothing:
		fraction = gradeAllOrNothing(def.Options, resp)
	case question.ModeSingle:
		return Outcome{}, ErrSingleModeUnsupported
	default:
		return Outcome{}, fmt.Errorf("grade %q: %w: %d", def.ID, question.ErrUnknownMode, int(def.Mode))
	}
	return Outcome{Fraction: fraction, State: g.classify.Classify(fraction)}, nil
}

func gradePartial(opts []question.Option, resp question.Response) float64 {
	sum := 0.0
	for _, o := range opts {
		if resp.Selected(o.ID) {
			sum += o.Fraction
		}
	}
	return clamp01(sum)
}

// gradeAllOrNothing requires the selection to equal the set of options with
// a positive fraction.
func gradeAllOrNothing(opts []question.Option, resp question.Response) float64 {
	for _, o := range opts {
		correct := o.Fraction > 0
		if correct != resp.Selected(o.ID) {
			return 0
		}
	}
	return 1
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FeedbackFor picks the combined feedback text matching the state.
func FeedbackFor(fb question.CombinedFeedback, s State) string {
	switch s {
	case StateCorrect:
		return fb.Correct
	case StatePartiallyCorrect:
		return fb.PartiallyCorrect
	default:
		return fb.Incorrect
	}
}
