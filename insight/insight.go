// Package insight derives pedagogical signals by combining stored analyses:
// learning-gap detection from marks plus syllabus, and class engagement from
// marks plus attendance.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mentorai/backend/synthesis"
)

// ErrMissingUpstream reports that a required upstream analysis has not been
// produced yet. Gap detection needs both a marks analysis and a syllabus
// analysis on record before it has anything to compare.
var ErrMissingUpstream = errors.New("insight: required upstream analysis missing")

// Detector cross-references class performance with syllabus coverage.
type Detector struct {
	gateway *synthesis.Gateway
}

// NewDetector creates a Detector over the synthesis gateway.
func NewDetector(g *synthesis.Gateway) *Detector {
	return &Detector{gateway: g}
}

// Detect finds learning gaps given the latest performance summary and the
// latest syllabus topics. Both inputs must be present; callers pass them
// explicitly so the data dependency is visible at the call site instead of
// buried in a store lookup.
func (d *Detector) Detect(ctx context.Context, performanceSummary string, syllabusTopics []string) (*synthesis.GapReport, error) {
	if strings.TrimSpace(performanceSummary) == "" {
		return nil, fmt.Errorf("%w: no marks analysis on record", ErrMissingUpstream)
	}
	if len(syllabusTopics) == 0 {
		return nil, fmt.Errorf("%w: no syllabus analysis on record", ErrMissingUpstream)
	}
	report, _, err := d.gateway.DetectGaps(ctx, performanceSummary, syllabusTopics)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// MarksSnapshot is the slice of a stored marks analysis that engagement
// scoring needs.
type MarksSnapshot struct {
	AverageScore       float64
	PerformanceSummary string
}

// AttendanceCounts summarizes recent attendance rows.
type AttendanceCounts struct {
	Total   int
	Present int
}

// Rate returns the attendance percentage, 0 when no rows exist.
func (c AttendanceCounts) Rate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Present) / float64(c.Total) * 100
}

// Engagement aggregates recent marks and attendance into a class engagement
// assessment.
type Engagement struct {
	gateway *synthesis.Gateway
}

// NewEngagement creates an Engagement analyzer over the synthesis gateway.
func NewEngagement(g *synthesis.Gateway) *Engagement {
	return &Engagement{gateway: g}
}

// Analyze builds a performance overview from the snapshots and counts, then
// asks for an engagement assessment.
func (e *Engagement) Analyze(ctx context.Context, marks []MarksSnapshot, att AttendanceCounts) (*synthesis.EngagementReport, error) {
	report, _, err := e.gateway.AnalyzeEngagement(ctx, BuildOverview(marks, att))
	if err != nil {
		return nil, err
	}
	return report, nil
}

// BuildOverview renders the combined marks and attendance picture as text.
func BuildOverview(marks []MarksSnapshot, att AttendanceCounts) string {
	var avgScores []string
	var summaries []string
	var overall float64
	for _, m := range marks {
		avgScores = append(avgScores, fmt.Sprintf("%.2f", m.AverageScore))
		if m.PerformanceSummary != "" {
			summaries = append(summaries, m.PerformanceSummary)
		}
		overall += m.AverageScore
	}
	if len(marks) > 0 {
		overall /= float64(len(marks))
	}

	var b strings.Builder
	b.WriteString("Class Performance Overview:\n")
	fmt.Fprintf(&b, "- Recent Average Scores: [%s]\n", strings.Join(avgScores, ", "))
	fmt.Fprintf(&b, "- Overall Class Average: %.2f%%\n", overall)
	fmt.Fprintf(&b, "- Recent Attendance Rate: %.2f%% (from %d records)\n", att.Rate(), att.Total)
	fmt.Fprintf(&b, "- Performance Summaries: %s\n", strings.Join(summaries, " | "))
	return b.String()
}
