package grading

import (
	"math"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// MinAnswers is the smallest number of non-blank options a question needs.
const MinAnswers = 2

type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonNotEnoughAnswers         Reason = "not_enough_answers"
	ReasonMaxFractionMustBeOne     Reason = "max_fraction_must_be_one"
	ReasonFractionsMustSumPositive Reason = "fractions_must_sum_positive"
	ReasonFractionsMustSumToOne    Reason = "fractions_must_sum_to_one"
	ReasonFractionOutOfRange       Reason = "fraction_out_of_range"
	ReasonUnknownMode              Reason = "unknown_mode"
)

// Validation is the outcome of checking an option configuration. A rejected
// configuration is an ordinary result, not an error.
type Validation struct {
	Accepted bool    `json:"accepted"`
	Reason   Reason  `json:"reason,omitempty"`
	Value    float64 `json:"value,omitempty"`
}

func accepted() Validation { return Validation{Accepted: true} }

func rejected(r Reason, v float64) Validation { return Validation{Reason: r, Value: v} }

// Validate checks that the option weights are usable for mode. Blank options
// are ignored throughout, matching how they are dropped on save.
func Validate(opts []question.Option, mode question.Mode) Validation {
	n := 0
	for _, o := range opts {
		if !o.Blank() {
			n++
		}
	}
	if n < MinAnswers {
		return rejected(ReasonNotEnoughAnswers, MinAnswers)
	}

	// The value reported is the 1-based position of the offending option.
	for i, o := range opts {
		if !o.Blank() && !question.ValidFraction(o.Fraction) {
			return rejected(ReasonFractionOutOfRange, float64(i+1))
		}
	}

	total, maxFrac := 0.0, -1.0
	for _, o := range opts {
		if o.Blank() {
			continue
		}
		if o.Fraction > 0 {
			total += o.Fraction
		}
		if o.Fraction > maxFrac {
			maxFrac = o.Fraction
		}
	}

	switch mode {
	case question.ModeSingle:
		if maxFrac != 1 {
			return rejected(ReasonMaxFractionMustBeOne, maxFrac)
		}
	case question.ModeMultipleAllOrNothing:
		total = round2(total)
		if total <= 0 {
			return rejected(ReasonFractionsMustSumPositive, total)
		}
	case question.ModeMultiplePartial:
		total = round2(total)
		if total != 1 {
			return rejected(ReasonFractionsMustSumToOne, total)
		}
	default:
		return rejected(ReasonUnknownMode, float64(mode))
	}
	return accepted()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
