package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/notice"
	"github.com/mind-engage/mindengage-mcsaon/internal/qformat"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
	"github.com/mind-engage/mindengage-mcsaon/internal/report"
)

var (
	errRejected    = errors.New("one or more questions were rejected")
	errDuplicateID = errors.New("duplicate option id")
)

func loadDefs(path string) ([]question.Definition, error) {
	var defs []question.Definition
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		res, err := qformat.Import(f)
		if err != nil {
			return nil, err
		}
		defs = res.Questions
	} else {
		var err error
		if defs, err = qformat.LoadYAMLFile(path); err != nil {
			return nil, err
		}
	}
	for i := range defs {
		if defs[i].ID == "" {
			defs[i].ID = "q" + strconv.Itoa(i+1)
		}
		for j := range defs[i].Options {
			if defs[i].Options[j].ID == "" {
				defs[i].Options[j].ID = strconv.Itoa(j + 1)
			}
		}
		if id, dup := defs[i].DuplicateOptionID(); dup {
			return nil, fmt.Errorf("question %s: %w %q", defs[i].ID, errDuplicateID, id)
		}
	}
	return defs, nil
}

func pick(defs []question.Definition, id string) (question.Definition, error) {
	if id == "" {
		if len(defs) != 1 {
			return question.Definition{}, fmt.Errorf("file holds %d questions, choose one with --question", len(defs))
		}
		return defs[0], nil
	}
	for _, d := range defs {
		if d.ID == id {
			return d, nil
		}
	}
	return question.Definition{}, fmt.Errorf("question %q not in file", id)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runValidate(out io.Writer, path string) error {
	defs, err := loadDefs(path)
	if err != nil {
		return err
	}
	rejected := 0
	for _, d := range defs {
		v := grading.Validate(d.Options, d.Mode)
		if v.Accepted {
			fmt.Fprintf(out, "%s\tok\t%s\n", d.ID, d.Mode)
			continue
		}
		rejected++
		fmt.Fprintf(out, "%s\trejected\t%s\t%s\n", d.ID, v.Reason, notice.For(v).Text)
	}
	if rejected > 0 {
		return errRejected
	}
	return nil
}

func runGrade(out io.Writer, path, id string, selected []string) error {
	defs, err := loadDefs(path)
	if err != nil {
		return err
	}
	def, err := pick(defs, id)
	if err != nil {
		return err
	}
	for _, s := range selected {
		if _, ok := def.Option(s); !ok {
			return fmt.Errorf("question %s has no option %q", def.ID, s)
		}
	}
	res, err := grading.NewGrader().Grade(def, question.Selection(selected...))
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"question": def.ID,
		"fraction": res.Fraction,
		"state":    res.State,
		"feedback": grading.FeedbackFor(def.Feedback, res.State),
	})
}

func runResponses(out io.Writer, path, id, xlsxPath string) error {
	defs, err := loadDefs(path)
	if err != nil {
		return err
	}
	def, err := pick(defs, id)
	if err != nil {
		return err
	}
	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return err
		}
		if err := report.WriteResponses(f, def); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", xlsxPath)
		return nil
	}
	classes, err := grading.PossibleResponses(def)
	if err != nil {
		return err
	}
	return writeJSON(out, classes)
}

func runExport(out io.Writer, path string) error {
	defs, err := loadDefs(path)
	if err != nil {
		return err
	}
	return qformat.Export(out, defs...)
}

func runImport(out, errOut io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := qformat.Import(f)
	for _, s := range res.Skipped {
		fmt.Fprintf(errOut, "skipped question %d (%s): %s\n", s.Index, s.Type, s.Reason)
	}
	if err != nil {
		return err
	}
	return qformat.WriteYAML(out, res.Questions...)
}
