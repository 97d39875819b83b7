package synthesis

import (
	"context"
)

// Advisory tasks. These have no deterministic fallback: a malformed model
// output is surfaced as a *Error so the caller can degrade at its own layer.

// AnalyzeMarks turns a marks narrative into a performance summary and
// teaching strategy.
func (g *Gateway) AnalyzeMarks(ctx context.Context, narrative string) (*MarksInsight, Outcome, error) {
	return advisory[MarksInsight](g, ctx, TaskMarksAnalysis, marksPrompt(narrative))
}

// GenerateFeedback produces personalized student feedback. The identifying
// fields of the spec are echoed into the result regardless of model output.
func (g *Gateway) GenerateFeedback(ctx context.Context, spec FeedbackSpec) (*Feedback, Outcome, error) {
	fb, out, err := advisory[Feedback](g, ctx, TaskFeedback, feedbackPrompt(spec))
	if err != nil {
		return nil, out, err
	}
	fb.StudentName = spec.StudentName
	fb.Score = spec.Score
	return fb, out, nil
}

// AnalyzeSyllabus extracts major topics and assessment focus areas from
// syllabus text.
func (g *Gateway) AnalyzeSyllabus(ctx context.Context, text string) (*SyllabusInsight, Outcome, error) {
	text = truncateWords(text, g.maxContentWords)
	si, out, err := advisory[SyllabusInsight](g, ctx, TaskSyllabusAnalysis, syllabusPrompt(text))
	if err != nil {
		return nil, out, err
	}
	if si.MajorTopics == nil {
		si.MajorTopics = []string{}
	}
	if si.AssessmentFocus == nil {
		si.AssessmentFocus = []string{}
	}
	return si, out, nil
}

// AnalyzeAttendance interprets an attendance summary.
func (g *Gateway) AnalyzeAttendance(ctx context.Context, summary string) (*AttendanceInsight, Outcome, error) {
	ai, out, err := advisory[AttendanceInsight](g, ctx, TaskAttendanceAnalysis, attendancePrompt(summary))
	if err != nil {
		return nil, out, err
	}
	if ai.Suggestions == nil {
		ai.Suggestions = []string{}
	}
	return ai, out, nil
}

// DetectGaps cross-references a performance summary against syllabus topics.
func (g *Gateway) DetectGaps(ctx context.Context, performanceSummary string, topics []string) (*GapReport, Outcome, error) {
	gr, out, err := advisory[GapReport](g, ctx, TaskGapDetection, gapsPrompt(performanceSummary, topics))
	if err != nil {
		return nil, out, err
	}
	if gr.DetectedGaps == nil {
		gr.DetectedGaps = []string{}
	}
	if gr.AtRiskTopics == nil {
		gr.AtRiskTopics = []string{}
	}
	return gr, out, nil
}

// ParseAttendanceText recovers structured attendance records from free text,
// typically the output of a PDF extraction over a scanned register.
func (g *Gateway) ParseAttendanceText(ctx context.Context, text string) ([]AttendanceEntry, Outcome, error) {
	var env struct {
		Records []AttendanceEntry `json:"records"`
	}
	raw, err := g.call(ctx, TaskAttendanceRecordParsing, systemTeaching, attendanceRecordsPrompt(text))
	if err != nil {
		return nil, Failed, err
	}
	if err := decodeInto(TaskAttendanceRecordParsing, raw, &env); err != nil {
		return nil, Failed, err
	}
	out := env.Records[:0]
	for _, r := range env.Records {
		if r.StudentName == "" {
			continue
		}
		if r.Status != "Present" && r.Status != "Absent" {
			continue
		}
		out = append(out, r)
	}
	return out, Completed, nil
}

// AnalyzeLecture structures a raw transcript into study notes.
func (g *Gateway) AnalyzeLecture(ctx context.Context, transcript string) (*LectureNotes, Outcome, error) {
	transcript = truncateWords(transcript, g.maxContentWords)
	n, out, err := advisory[LectureNotes](g, ctx, TaskLectureNotes, lecturePrompt(transcript))
	if err != nil {
		return nil, out, err
	}
	n.normalize()
	return n, out, nil
}

// AnalyzeEngagement assesses overall class engagement from a combined
// performance and attendance overview.
func (g *Gateway) AnalyzeEngagement(ctx context.Context, summary string) (*EngagementReport, Outcome, error) {
	er, out, err := advisory[EngagementReport](g, ctx, TaskEngagement, engagementPrompt(summary))
	if err != nil {
		return nil, out, err
	}
	if er.Suggestions == nil {
		er.Suggestions = []string{}
	}
	return er, out, nil
}

func advisory[T any](g *Gateway, ctx context.Context, task TaskKind, prompt string) (*T, Outcome, error) {
	raw, err := g.call(ctx, task, systemTeaching, prompt)
	if err != nil {
		return nil, Failed, err
	}
	var v T
	if err := decodeInto(task, raw, &v); err != nil {
		return nil, Failed, err
	}
	return &v, Completed, nil
}
