// Package tabular parses gradebook and attendance CSV uploads into
// structured metrics. No external services are involved: everything here is
// deterministic, and the narrative summary it emits becomes the seed context
// for generative synthesis downstream.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSchema is returned when the tabular input does not carry the columns an
// analysis needs.
var ErrSchema = errors.New("tabular: unexpected csv schema")

// DefaultRiskThreshold is the score below which a student is classified at
// risk. Same unit as the score column.
const DefaultRiskThreshold = 40.0

// MarksSummary is the structured result of a gradebook analysis. One upload
// produces one independent summary; summaries are never merged.
type MarksSummary struct {
	AverageScore float64  `json:"average_score"`
	WeakTopics   []string `json:"weak_topics"`
	RiskStudents []string `json:"risk_students"`

	// Narrative is a deterministic description of the sheet, used as seed
	// context for generative synthesis.
	Narrative string `json:"narrative"`

	StudentCount int `json:"student_count"`
}

// AttendanceStatus is a normalized attendance state.
type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

// AttendanceRecord is one row of an attendance sheet. Subject tagging is the
// caller's concern, not this package's.
type AttendanceRecord struct {
	StudentName string           `json:"student_name"`
	Status      AttendanceStatus `json:"status"`
	Subject     string           `json:"subject,omitempty"`
}

// Analyzer computes metrics from tabular uploads.
type Analyzer struct {
	riskThreshold float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRiskThreshold overrides the risk score cutoff.
func WithRiskThreshold(v float64) Option {
	return func(a *Analyzer) { a.riskThreshold = v }
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{riskThreshold: DefaultRiskThreshold}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AnalyzeMarks computes a MarksSummary from a gradebook CSV.
//
// The score column is located by exact header name "score", falling back to
// the first column whose values are numeric. A missing student_name column
// degrades the risk list to empty rather than failing — the averages are
// still worth reporting.
func (a *Analyzer) AnalyzeMarks(data []byte) (*MarksSummary, error) {
	header, rows, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrSchema)
	}

	scoreCol := findColumn(header, "score")
	if scoreCol < 0 {
		scoreCol = firstNumericColumn(header, rows)
	}
	if scoreCol < 0 {
		return nil, fmt.Errorf("%w: no numeric score column", ErrSchema)
	}
	nameCol := findColumn(header, "student_name")

	var sum float64
	risk := []string{}
	for i, row := range rows {
		score, err := strconv.ParseFloat(strings.TrimSpace(cell(row, scoreCol)), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q is not a score", ErrSchema, i+2, cell(row, scoreCol))
		}
		sum += score
		if score < a.riskThreshold && nameCol >= 0 {
			risk = append(risk, strings.TrimSpace(cell(row, nameCol)))
		}
	}

	avg := sum / float64(len(rows))

	// Weak topics need per-topic score columns, which a single-score sheet
	// does not carry; an empty set is honest, inference is not.
	return &MarksSummary{
		AverageScore: avg,
		WeakTopics:   []string{},
		RiskStudents: risk,
		StudentCount: len(rows),
		Narrative: fmt.Sprintf("Average Score: %.2f. Total Students: %d. Risk Students: %d.",
			avg, len(rows), len(risk)),
	}, nil
}

// ParseAttendance turns an attendance CSV into one record per row. Statuses
// are normalized case-insensitively to Present/Absent; anything else fails
// the whole sheet so a half-imported upload never reaches the store.
func (a *Analyzer) ParseAttendance(data []byte) ([]AttendanceRecord, error) {
	header, rows, err := readCSV(data)
	if err != nil {
		return nil, err
	}

	nameCol := findColumn(header, "student_name")
	statusCol := findColumn(header, "status")
	if nameCol < 0 || statusCol < 0 {
		return nil, fmt.Errorf("%w: attendance needs student_name and status columns", ErrSchema)
	}

	records := make([]AttendanceRecord, 0, len(rows))
	for i, row := range rows {
		status, err := parseStatus(cell(row, statusCol))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrSchema, i+2, err)
		}
		records = append(records, AttendanceRecord{
			StudentName: strings.TrimSpace(cell(row, nameCol)),
			Status:      status,
		})
	}
	return records, nil
}

func parseStatus(raw string) (AttendanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present", "p":
		return Present, nil
	case "absent", "a":
		return Absent, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// readCSV parses the bytes and splits header from data rows.
func readCSV(data []byte) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrSchema)
	}
	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return header, all[1:], nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// firstNumericColumn returns the first column whose first non-empty value
// parses as a number, mirroring a "select numeric dtype" probe.
func firstNumericColumn(header []string, rows [][]string) int {
	for col := range header {
		for _, row := range rows {
			v := strings.TrimSpace(cell(row, col))
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				return col
			}
			break
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
