package synthesis

import (
	"context"
	"fmt"
	"log/slog"
)

// FallbackNote marks assessments produced without model assistance.
const FallbackNote = "Generated in degraded mode. Question bank used instead of adaptive generation."

// GenerateAssessment produces an assessment for a subject and unit. When the
// model output cannot be decoded into a usable assessment, a deterministic
// question-bank assessment is returned and the outcome is FallbackApplied.
// A transport failure is still a hard error.
func (g *Gateway) GenerateAssessment(ctx context.Context, spec AssessmentSpec) (*Assessment, Outcome, error) {
	spec = spec.withDefaults()
	raw, err := g.call(ctx, TaskAssessmentGeneration, systemTeaching, assessmentPrompt(spec))
	if err != nil {
		return nil, Failed, err
	}
	return g.finishAssessment(TaskAssessmentGeneration, raw, spec, "")
}

// GenerateAssessmentFromContent grounds the questions in uploaded study
// material. The material is word-truncated before prompting.
func (g *Gateway) GenerateAssessmentFromContent(ctx context.Context, content string, spec AssessmentSpec) (*Assessment, Outcome, error) {
	spec = spec.withDefaults()
	content = truncateWords(content, g.maxContentWords)
	raw, err := g.call(ctx, TaskAssessmentFromContent, systemTeaching, assessmentFromContentPrompt(content, spec))
	if err != nil {
		return nil, Failed, err
	}
	return g.finishAssessment(TaskAssessmentFromContent, raw, spec, "Generated from uploaded material")
}

func (g *Gateway) finishAssessment(task TaskKind, raw string, spec AssessmentSpec, source string) (*Assessment, Outcome, error) {
	var a Assessment
	if err := decodeInto(task, raw, &a); err != nil {
		g.logger.Warn("assessment output unusable, applying fallback",
			slog.String("task", string(task)), slog.String("error", err.Error()))
		fb := fallbackAssessment(spec)
		fb.Source = source
		return fb, FallbackApplied, nil
	}
	if !normalizeAssessment(&a, spec) {
		g.logger.Warn("assessment output malformed, applying fallback",
			slog.String("task", string(task)),
			slog.Int("questions", len(a.Questions)), slog.Int("requested", spec.NumQuestions))
		fb := fallbackAssessment(spec)
		fb.Source = source
		return fb, FallbackApplied, nil
	}
	if source != "" {
		a.Source = source
	}
	return &a, Completed, nil
}

// normalizeAssessment enforces the structural contract: the question count
// matches the request and numbering is a clean 1..n. A count mismatch means
// the model did not follow the brief, so the whole output is rejected rather
// than padded.
func normalizeAssessment(a *Assessment, spec AssessmentSpec) bool {
	if len(a.Questions) == 0 || len(a.Questions) != spec.NumQuestions {
		return false
	}
	for i := range a.Questions {
		q := &a.Questions[i]
		if q.Text == "" {
			return false
		}
		q.Number = i + 1
		switch q.Type {
		case MCQ:
			if len(q.Options) != 4 || q.CorrectAnswer == "" {
				return false
			}
		case ShortAnswer:
			q.Options = nil
			q.CorrectAnswer = ""
		default:
			return false
		}
		if q.Marks <= 0 {
			q.Marks = defaultMarks(q.Type)
		}
	}
	a.TotalQuestions = len(a.Questions)
	if a.Title == "" {
		a.Title = fmt.Sprintf("%s - %s Assessment", spec.Subject, spec.Unit)
	}
	return true
}

// fallbackAssessment builds a deterministic assessment when the model is
// unreachable or unusable: alternating MCQ and Short Answer placeholders at
// Bloom level Apply, tagged with FallbackNote.
func fallbackAssessment(spec AssessmentSpec) *Assessment {
	qs := make([]Question, spec.NumQuestions)
	for i := range qs {
		q := Question{
			Number:     i + 1,
			BloomLevel: "Apply",
		}
		if i%2 == 0 {
			q.Type = MCQ
			q.Text = fmt.Sprintf("Question %d about %s (Unit: %s)", i+1, spec.Subject, spec.Unit)
			q.Options = []string{"A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"}
			q.CorrectAnswer = "A"
		} else {
			q.Type = ShortAnswer
			q.Text = fmt.Sprintf("Explain a key concept from %s, unit %s.", spec.Subject, spec.Unit)
		}
		q.Marks = defaultMarks(q.Type)
		qs[i] = q
	}
	return &Assessment{
		Title:          fmt.Sprintf("%s - %s Assessment", spec.Subject, spec.Unit),
		TotalQuestions: len(qs),
		Questions:      qs,
		Note:           FallbackNote,
	}
}

func defaultMarks(t QuestionType) int {
	if t == MCQ {
		return 2
	}
	return 5
}

func (s AssessmentSpec) withDefaults() AssessmentSpec {
	if s.NumQuestions <= 0 {
		s.NumQuestions = 10
	}
	if s.Difficulty == "" {
		s.Difficulty = "Medium"
	}
	return s
}
