package qformat

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// defFile is a YAML definition file. It holds either one question at the top
// level or a list under "questions".
type defFile struct {
	question.Definition `yaml:",inline"`
	Questions           []question.Definition `yaml:"questions,omitempty"`
}

// LoadYAML reads question definitions from r.
func LoadYAML(r io.Reader) ([]question.Definition, error) {
	var f defFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	defs := f.Questions
	if len(defs) == 0 {
		if len(f.Options) == 0 && f.Mode == question.ModeUnknown {
			return nil, ErrNoQuestions
		}
		defs = []question.Definition{f.Definition}
	}
	for i := range defs {
		if defs[i].Numbering == "" {
			defs[i].Numbering = question.DefaultNumbering
		}
		for j, o := range defs[i].Options {
			if !question.ValidFraction(o.Fraction) {
				return nil, fmt.Errorf("question %d option %d: %w", i+1, j+1, ErrFractionRange)
			}
		}
	}
	return defs, nil
}

func LoadYAMLFile(path string) ([]question.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadYAML(bytes.NewReader(b))
}

func WriteYAML(w io.Writer, defs ...question.Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	var v any = struct {
		Questions []question.Definition `yaml:"questions"`
	}{defs}
	if len(defs) == 1 {
		v = defs[0]
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
