// Package report writes response-analysis spreadsheets.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

const SheetName = "Responses"

var header = []string{"Subquestion", "Response", "Text", "Fraction"}

// WriteResponses writes one row per possible response of def, grouped by
// subquestion in option order.
func WriteResponses(w io.Writer, def question.Definition) error {
	classes, err := grading.PossibleResponses(def)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, sub := range subquestionOrder(def, classes) {
		for _, key := range responseOrder(def, classes[sub]) {
			pr := classes[sub][key]
			label := key
			if key == grading.NoResponseKey {
				label = "-"
			}
			f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), sub)
			f.SetCellValue(SheetName, fmt.Sprintf("B%d", row), label)
			f.SetCellValue(SheetName, fmt.Sprintf("C%d", row), pr.Text)
			f.SetCellValue(SheetName, fmt.Sprintf("D%d", row), pr.Fraction)
			row++
		}
	}

	if score, ok := grading.RandomGuessScore(def); ok {
		row++
		f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), "Random guess score")
		f.SetCellValue(SheetName, fmt.Sprintf("D%d", row), score)
	}

	f.DeleteSheet("Sheet1")
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

// Subquestions in option order; single mode has just the question id.
func subquestionOrder(def question.Definition, classes grading.Classes) []string {
	var out []string
	for _, id := range def.AnswerIDs() {
		if _, ok := classes[id]; ok {
			out = append(out, id)
		}
	}
	if len(out) == len(classes) {
		return out
	}
	out = out[:0]
	for k := range classes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func responseOrder(def question.Definition, m map[string]grading.PossibleResponse) []string {
	out := make([]string, 0, len(m))
	for _, id := range def.AnswerIDs() {
		if _, ok := m[id]; ok {
			out = append(out, id)
		}
	}
	if _, ok := m[grading.NoResponseKey]; ok {
		out = append(out, grading.NoResponseKey)
	}
	return out
}
