package bank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-mcsaon/internal/eventlog"
	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/metrics"
	"github.com/mind-engage/mindengage-mcsaon/internal/notice"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
)

// SaveResult reports what happened to a save request. When the validation
// was rejected nothing was written and Definition is nil.
type SaveResult struct {
	Definition *question.Definition `json:"question,omitempty"`
	Validation grading.Validation   `json:"validation"`
	Notice     *notice.Message      `json:"notice,omitempty"`
}

// GradeResult adds the feedback text picked for the outcome.
type GradeResult struct {
	grading.Outcome
	Feedback string `json:"feedback,omitempty"`
}

type Service struct {
	store   Store
	grader  grading.Grader
	log     *zap.Logger
	metrics *metrics.Metrics
	events  eventlog.Recorder
}

func NewService(store Store, grader grading.Grader, log *zap.Logger, m *metrics.Metrics) *Service {
	if grader == nil {
		grader = grading.NewGrader()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, grader: grader, log: log, metrics: m}
}

// WithEvents makes the service record saves, deletes and gradings.
func (s *Service) WithEvents(r eventlog.Recorder) *Service {
	s.events = r
	return s
}

func (s *Service) Store() Store { return s.store }

func (s *Service) record(ctx context.Context, typ, id string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, id, data); err != nil {
		s.log.Warn("event not recorded", zap.String("type", typ), zap.String("question_id", id), zap.Error(err))
	}
}

// Validate checks def without saving it.
func (s *Service) Validate(def question.Definition) (grading.Validation, *notice.Message) {
	v := grading.Validate(def.Options, def.Mode)
	s.metrics.ObserveValidation(def.Mode.String(), string(v.Reason))
	if v.Accepted {
		return v, nil
	}
	msg := notice.For(v)
	return v, &msg
}

// Save validates def and persists it only when the configuration is accepted.
func (s *Service) Save(ctx context.Context, def question.Definition) (SaveResult, error) {
	v, msg := s.Validate(def)
	if !v.Accepted {
		s.log.Info("question configuration rejected",
			zap.String("question_id", def.ID),
			zap.String("mode", def.Mode.String()),
			zap.String("reason", string(v.Reason)),
			zap.Float64("value", v.Value))
		return SaveResult{Validation: v, Notice: msg}, nil
	}
	out, err := s.store.Save(ctx, def)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save question: %w", err)
	}
	s.log.Debug("question saved", zap.String("question_id", out.ID), zap.Int("answers", len(out.Options)))
	s.record(ctx, eventlog.TypeSaved, out.ID, map[string]any{"mode": out.Mode, "answers": len(out.Options)})
	return SaveResult{Definition: &out, Validation: v}, nil
}

func (s *Service) Get(ctx context.Context, id string) (question.Definition, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, eventlog.TypeDeleted, id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	return s.store.List(ctx, opts)
}

// Grade loads question id and grades resp against it.
func (s *Service) Grade(ctx context.Context, id string, resp question.Response) (GradeResult, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return GradeResult{}, err
	}
	return s.GradeDefinition(ctx, def, resp)
}

func (s *Service) GradeDefinition(ctx context.Context, def question.Definition, resp question.Response) (GradeResult, error) {
	out, err := s.grader.Grade(def, resp)
	if err != nil {
		s.log.Error("grading failed", zap.String("question_id", def.ID), zap.Int("mode", int(def.Mode)), zap.Error(err))
		return GradeResult{}, err
	}
	s.metrics.ObserveGrade(def.Mode.String(), string(out.State))
	selected := make([]string, 0, len(resp))
	for _, id := range def.AnswerIDs() {
		if resp.Selected(id) {
			selected = append(selected, id)
		}
	}
	s.record(ctx, eventlog.TypeGraded, def.ID, map[string]any{"selected": selected, "fraction": out.Fraction, "state": out.State})
	return GradeResult{Outcome: out, Feedback: grading.FeedbackFor(def.Feedback, out.State)}, nil
}

func (s *Service) PossibleResponses(ctx context.Context, id string) (grading.Classes, error) {
	def, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return grading.PossibleResponses(def)
}
