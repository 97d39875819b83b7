package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mentorai/backend/synthesis"
)

func TestMaterialRoundTrip(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	id, err := s.InsertMaterial(ctx, Material{
		TeacherID: "t1",
		Subject:   "Physics",
		Unit:      "Optics",
		Title:     "optics.pdf",
		Content:   "refraction bends light",
		FileName:  "optics.pdf",
		WordCount: 3,
	})
	if err != nil {
		t.Fatalf("InsertMaterial: %v", err)
	}
	if !strings.HasPrefix(id, "mat_") {
		t.Fatalf("id = %q", id)
	}

	m, err := s.GetMaterial(ctx, id)
	if err != nil {
		t.Fatalf("GetMaterial: %v", err)
	}
	if m.Content != "refraction bends light" || m.Subject != "Physics" || m.WordCount != 3 {
		t.Fatalf("material = %+v", m)
	}
	if m.CreatedAt == "" {
		t.Fatal("CreatedAt unset")
	}
}

func TestGetMaterial_NotFound(t *testing.T) {
	s := OpenMemory(t)

	_, err := s.GetMaterial(context.Background(), "mat_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLatestMarks_NewestFirst(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	for _, avg := range []float64{40, 50, 60} {
		if _, err := s.InsertMarks(ctx, MarksRow{AverageScore: avg, PerformanceSummary: "s"}); err != nil {
			t.Fatalf("InsertMarks: %v", err)
		}
	}

	rows, err := s.LatestMarks(ctx, 2)
	if err != nil {
		t.Fatalf("LatestMarks: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
	if rows[0].AverageScore != 60 || rows[1].AverageScore != 50 {
		t.Fatalf("order: %v, %v", rows[0].AverageScore, rows[1].AverageScore)
	}
}

func TestLatestSyllabus(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	if _, err := s.LatestSyllabus(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty table: err = %v", err)
	}

	if _, err := s.InsertSyllabus(ctx, SyllabusRow{MajorTopics: []string{"old"}, AssessmentFocus: []string{}}); err != nil {
		t.Fatalf("InsertSyllabus: %v", err)
	}
	if _, err := s.InsertSyllabus(ctx, SyllabusRow{MajorTopics: []string{"waves", "optics"}, AssessmentFocus: []string{"optics"}}); err != nil {
		t.Fatalf("InsertSyllabus: %v", err)
	}

	r, err := s.LatestSyllabus(ctx)
	if err != nil {
		t.Fatalf("LatestSyllabus: %v", err)
	}
	if len(r.MajorTopics) != 2 || r.MajorTopics[0] != "waves" {
		t.Fatalf("topics = %v", r.MajorTopics)
	}
}

func TestAttendanceBatch(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	err := s.InsertAttendance(ctx, []AttendanceRow{
		{StudentName: "Alice", Status: "Present", Subject: "Math"},
		{StudentName: "Bob", Status: "Absent", Subject: "Math"},
	})
	if err != nil {
		t.Fatalf("InsertAttendance: %v", err)
	}

	rows, err := s.RecentAttendance(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAttendance: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d", len(rows))
	}
	for _, r := range rows {
		if !strings.HasPrefix(r.ID, "att_") || r.Subject != "Math" {
			t.Fatalf("row = %+v", r)
		}
	}

	// empty batch is a no-op
	if err := s.InsertAttendance(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestInsertFeedback(t *testing.T) {
	s := OpenMemory(t)

	id, err := s.InsertFeedback(context.Background(), "t1", &synthesis.Feedback{
		StudentName: "Alice", Score: 41, Strengths: "persistence",
	})
	if err != nil {
		t.Fatalf("InsertFeedback: %v", err)
	}
	if !strings.HasPrefix(id, "fbk_") {
		t.Fatalf("id = %q", id)
	}
}

func TestInsertAssessment(t *testing.T) {
	s := OpenMemory(t)

	id, err := s.InsertAssessment(context.Background(), "t1", "Math", "Algebra", &synthesis.Assessment{
		Title: "Math - Algebra Assessment", TotalQuestions: 1,
		Questions: []synthesis.Question{{Number: 1, Text: "q", Type: synthesis.ShortAnswer, Marks: 5}},
	})
	if err != nil {
		t.Fatalf("InsertAssessment: %v", err)
	}
	if !strings.HasPrefix(id, "asm_") {
		t.Fatalf("id = %q", id)
	}
}

func TestInsertLectureNotes(t *testing.T) {
	s := OpenMemory(t)

	id, err := s.InsertLectureNotes(context.Background(), "t1", &synthesis.LectureNotes{
		Title: "Photosynthesis", Summary: "plants make food",
		Topics: []string{"light reactions"}, Concepts: []string{}, Definitions: []string{}, Examples: []string{},
	})
	if err != nil {
		t.Fatalf("InsertLectureNotes: %v", err)
	}
	if !strings.HasPrefix(id, "lec_") {
		t.Fatalf("id = %q", id)
	}
}
