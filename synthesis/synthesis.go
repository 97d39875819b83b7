// Package synthesis wraps the external generative text service behind a
// strict schema contract.
//
// The underlying service guarantees nothing beyond "best-effort JSON in the
// response text". Every task here maps to a prompt template, an explicit
// target JSON shape, and a decode that treats the response as untrusted
// input. Tasks with a defined fallback (assessment generation) degrade to a
// deterministic placeholder instead of failing; advisory analyses surface a
// typed *Error, because a silently wrong fallback would be worse than a
// visible failure.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Completer is the narrow capability the gateway needs from the generative
// service: given a system and a user prompt, produce text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TaskKind identifies a synthesis task. Each kind has its own prompt
// template, target shape, and failure policy.
type TaskKind string

const (
	TaskMarksAnalysis           TaskKind = "marks_analysis"
	TaskAssessmentGeneration    TaskKind = "assessment_generation"
	TaskAssessmentFromContent   TaskKind = "assessment_from_content"
	TaskFeedback                TaskKind = "feedback"
	TaskSyllabusAnalysis        TaskKind = "syllabus_analysis"
	TaskAttendanceAnalysis      TaskKind = "attendance_analysis"
	TaskGapDetection            TaskKind = "gap_detection"
	TaskAttendanceRecordParsing TaskKind = "attendance_record_parsing"
	TaskLectureNotes            TaskKind = "lecture_notes"
	TaskEngagement              TaskKind = "engagement"
)

// Outcome is the terminal state of a synthesis call.
type Outcome string

const (
	// Completed: the response parsed into the expected shape.
	Completed Outcome = "completed"
	// FallbackApplied: the response was unusable and a deterministic,
	// schema-valid substitute was returned instead. Logged, never thrown.
	FallbackApplied Outcome = "fallback_applied"
	// Failed: the response was unusable and the task defines no fallback.
	Failed Outcome = "failed"
)

// Error is a structured synthesis failure: which task, why, and the
// underlying cause when there is one.
type Error struct {
	Task   TaskKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis %s: %s: %v", e.Task, e.Reason, e.Err)
	}
	return fmt.Sprintf("synthesis %s: %s", e.Task, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// MaxContentWords is the default truncation budget for material-grounded
// prompts.
const MaxContentWords = 3000

// Gateway turns unstructured generation calls into typed, contract-conformant
// results.
type Gateway struct {
	completer       Completer
	logger          *slog.Logger
	maxContentWords int
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// WithMaxContentWords overrides the truncation budget for
// material-grounded prompts.
func WithMaxContentWords(n int) GatewayOption {
	return func(g *Gateway) { g.maxContentWords = n }
}

// NewGateway creates a Gateway over the given completer.
func NewGateway(c Completer, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		completer:       c,
		logger:          slog.Default(),
		maxContentWords: MaxContentWords,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// call runs the completion and returns the raw response text. A transport
// failure is wrapped as a *Error with the task attached; no retries — a
// single failure is terminal for the stage.
func (g *Gateway) call(ctx context.Context, task TaskKind, system, user string) (string, error) {
	raw, err := g.completer.Complete(ctx, system, user)
	if err != nil {
		return "", &Error{Task: task, Reason: "completion call failed", Err: err}
	}
	return raw, nil
}

// decodeInto extracts the first JSON object from the raw response and
// unmarshals it. The response is untrusted: anything that does not parse is
// reported, and the caller decides between fallback and failure.
func decodeInto(task TaskKind, raw string, v any) error {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return &Error{Task: task, Reason: "no JSON object in response"}
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return &Error{Task: task, Reason: "response does not match expected shape", Err: err}
	}
	return nil
}
