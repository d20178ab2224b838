// Package notice renders configuration rejections as messages for editors.
package notice

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
)

// String keys, kept stable so translations can be added alongside.
const (
	KeyNotEnoughAnswers     = "notenoughanswers"
	KeyFractionsNoMax       = "fractionsnomax"
	KeyFractionsAddWrong    = "fractionsaddwrong"
	KeyFractionsNotPositive = "fractionsnotpositive"
	KeyFractionOutOfRange   = "fractionoutofrange"
	KeyUnknownMode          = "unknownmode"
)

var en = map[string]string{
	KeyNotEnoughAnswers:     "This type of question requires at least %s choices",
	KeyFractionsNoMax:       "One of the choices should be 100%%, so that it is possible to get a full grade for this question. The highest grade is %s%%.",
	KeyFractionsAddWrong:    "The positive grades you have chosen do not add up to 100%%. Instead, they add up to %s%%.",
	KeyFractionsNotPositive: "Multiple answers, all or nothing: at least one choice must have a positive grade. The positive grades add up to %s%%.",
	KeyFractionOutOfRange:   "The grade of choice %s must be between -100%% and 100%%.",
	KeyUnknownMode:          "Unknown grading mode %s.",
}

// Message is a rendered rejection.
type Message struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// For renders v. An accepted validation renders to the zero Message.
func For(v grading.Validation) Message {
	if v.Accepted {
		return Message{}
	}
	switch v.Reason {
	case grading.ReasonNotEnoughAnswers:
		return render(KeyNotEnoughAnswers, strconv.Itoa(int(v.Value)))
	case grading.ReasonMaxFractionMustBeOne:
		return render(KeyFractionsNoMax, percent(v.Value))
	case grading.ReasonFractionsMustSumToOne:
		return render(KeyFractionsAddWrong, percent(v.Value))
	case grading.ReasonFractionsMustSumPositive:
		return render(KeyFractionsNotPositive, percent(v.Value))
	case grading.ReasonFractionOutOfRange:
		return render(KeyFractionOutOfRange, strconv.Itoa(int(v.Value)))
	default:
		return render(KeyUnknownMode, strconv.Itoa(int(v.Value)))
	}
}

func render(key, arg string) Message {
	return Message{Key: key, Text: fmt.Sprintf(en[key], arg)}
}

// percent formats a fraction as a percentage without trailing zeros.
func percent(f float64) string {
	return strconv.FormatFloat(math.Round(f*10000)/100, 'f', -1, 64)
}
