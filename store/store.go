// Package store persists pipeline artifacts and analyses in SQLite.
//
// JSON-shaped payloads (assessments, feedback, lecture note sections) are
// stored as serialized columns: they are read back whole, never queried
// into.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mentorai/backend/idgen"
	"github.com/mentorai/backend/synthesis"
)

// ErrNotFound reports a lookup for a row that does not exist.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS study_materials (
	id           TEXT PRIMARY KEY,
	teacher_id   TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL,
	unit         TEXT NOT NULL,
	title        TEXT NOT NULL,
	content_text TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	word_count   INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS marks_analysis (
	id                  TEXT PRIMARY KEY,
	teacher_id          TEXT NOT NULL DEFAULT '',
	average_score       REAL NOT NULL,
	risk_students_count INTEGER NOT NULL,
	performance_summary TEXT NOT NULL,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS syllabus_analysis (
	id               TEXT PRIMARY KEY,
	teacher_id       TEXT NOT NULL DEFAULT '',
	major_topics     TEXT NOT NULL,
	assessment_focus TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id           TEXT PRIMARY KEY,
	teacher_id   TEXT NOT NULL DEFAULT '',
	student_name TEXT NOT NULL,
	status       TEXT NOT NULL,
	subject      TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id            TEXT PRIMARY KEY,
	teacher_id    TEXT NOT NULL DEFAULT '',
	student_name  TEXT NOT NULL,
	score         REAL NOT NULL,
	feedback_data TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY,
	teacher_id TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL,
	unit       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lecture_notes (
	id          TEXT PRIMARY KEY,
	teacher_id  TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	summary     TEXT NOT NULL,
	topics      TEXT NOT NULL,
	concepts    TEXT NOT NULL,
	definitions TEXT NOT NULL,
	examples    TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_name);
`

// Store wraps the SQLite database.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// id produces a type-scoped row identifier like "mat_<uuid>".
func (s *Store) id(kind string) string {
	return idgen.Prefixed(kind+"_", s.newID)()
}

// Open opens (and if needed creates) the store at path.
func Open(path string, opts ...OpenOption) (*Store, error) {
	db, err := openDB(path, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, newID: idgen.Default}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for components that keep their own
// tables in the same database (the cleanup queue).
func (s *Store) DB() *sql.DB { return s.db }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// Material is an uploaded study material with its extracted text.
type Material struct {
	ID        string
	TeacherID string
	Subject   string
	Unit      string
	Title     string
	Content   string
	FileName  string
	WordCount int
	CreatedAt string
}

// InsertMaterial stores a material and returns its generated ID.
func (s *Store) InsertMaterial(ctx context.Context, m Material) (string, error) {
	id := s.id("mat")
	_, err := execRetry(ctx, s.db, `
		INSERT INTO study_materials (id, teacher_id, subject, unit, title, content_text, file_name, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.TeacherID, m.Subject, m.Unit, m.Title, m.Content, m.FileName, m.WordCount, now())
	if err != nil {
		return "", fmt.Errorf("store: insert material: %w", err)
	}
	return id, nil
}

// GetMaterial fetches a material by ID.
func (s *Store) GetMaterial(ctx context.Context, id string) (*Material, error) {
	var m Material
	err := s.db.QueryRowContext(ctx, `
		SELECT id, teacher_id, subject, unit, title, content_text, file_name, word_count, created_at
		FROM study_materials WHERE id = ?`, id).
		Scan(&m.ID, &m.TeacherID, &m.Subject, &m.Unit, &m.Title, &m.Content, &m.FileName, &m.WordCount, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: material %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get material: %w", err)
	}
	return &m, nil
}

// MarksRow is a stored marks analysis.
type MarksRow struct {
	ID                 string
	TeacherID          string
	AverageScore       float64
	RiskStudentsCount  int
	PerformanceSummary string
	CreatedAt          string
}

// InsertMarks stores a marks analysis.
func (s *Store) InsertMarks(ctx context.Context, r MarksRow) (string, error) {
	id := s.id("mrk")
	_, err := execRetry(ctx, s.db, `
		INSERT INTO marks_analysis (id, teacher_id, average_score, risk_students_count, performance_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.TeacherID, r.AverageScore, r.RiskStudentsCount, r.PerformanceSummary, now())
	if err != nil {
		return "", fmt.Errorf("store: insert marks: %w", err)
	}
	return id, nil
}

// LatestMarks returns up to limit marks analyses, newest first. Row IDs are
// UUIDv7-based, so ordering by id is insertion order.
func (s *Store) LatestMarks(ctx context.Context, limit int) ([]MarksRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, teacher_id, average_score, risk_students_count, performance_summary, created_at
		FROM marks_analysis ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: latest marks: %w", err)
	}
	defer rows.Close()

	var out []MarksRow
	for rows.Next() {
		var r MarksRow
		if err := rows.Scan(&r.ID, &r.TeacherID, &r.AverageScore, &r.RiskStudentsCount, &r.PerformanceSummary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan marks: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SyllabusRow is a stored syllabus analysis.
type SyllabusRow struct {
	ID              string
	TeacherID       string
	MajorTopics     []string
	AssessmentFocus []string
	CreatedAt       string
}

// InsertSyllabus stores a syllabus analysis.
func (s *Store) InsertSyllabus(ctx context.Context, r SyllabusRow) (string, error) {
	id := s.id("syl")
	topics, err := json.Marshal(r.MajorTopics)
	if err != nil {
		return "", fmt.Errorf("store: marshal topics: %w", err)
	}
	focus, err := json.Marshal(r.AssessmentFocus)
	if err != nil {
		return "", fmt.Errorf("store: marshal focus: %w", err)
	}
	_, err = execRetry(ctx, s.db, `
		INSERT INTO syllabus_analysis (id, teacher_id, major_topics, assessment_focus, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, r.TeacherID, string(topics), string(focus), now())
	if err != nil {
		return "", fmt.Errorf("store: insert syllabus: %w", err)
	}
	return id, nil
}

// LatestSyllabus returns the most recent syllabus analysis, or ErrNotFound
// when none exists yet.
func (s *Store) LatestSyllabus(ctx context.Context) (*SyllabusRow, error) {
	var r SyllabusRow
	var topics, focus string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, teacher_id, major_topics, assessment_focus, created_at
		FROM syllabus_analysis ORDER BY id DESC LIMIT 1`).
		Scan(&r.ID, &r.TeacherID, &topics, &focus, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: syllabus analysis", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest syllabus: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &r.MajorTopics); err != nil {
		return nil, fmt.Errorf("store: decode topics: %w", err)
	}
	if err := json.Unmarshal([]byte(focus), &r.AssessmentFocus); err != nil {
		return nil, fmt.Errorf("store: decode focus: %w", err)
	}
	return &r, nil
}

// AttendanceRow is one stored attendance record.
type AttendanceRow struct {
	ID          string
	TeacherID   string
	StudentName string
	Status      string
	Subject     string
	CreatedAt   string
}

// InsertAttendance stores a batch of attendance records in one transaction.
func (s *Store) InsertAttendance(ctx context.Context, rows []AttendanceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO attendance (id, teacher_id, student_name, status, subject, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare attendance: %w", err)
		}
		defer stmt.Close()
		ts := now()
		for _, r := range rows {
			id := s.id("att")
			if _, err := stmt.ExecContext(ctx, id, r.TeacherID, r.StudentName, r.Status, r.Subject, ts); err != nil {
				return fmt.Errorf("store: insert attendance: %w", err)
			}
		}
		return nil
	})
}

// RecentAttendance returns up to limit attendance records, newest first.
func (s *Store) RecentAttendance(ctx context.Context, limit int) ([]AttendanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, teacher_id, student_name, status, subject, created_at
		FROM attendance ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent attendance: %w", err)
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var r AttendanceRow
		if err := rows.Scan(&r.ID, &r.TeacherID, &r.StudentName, &r.Status, &r.Subject, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan attendance: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertFeedback stores generated student feedback.
func (s *Store) InsertFeedback(ctx context.Context, teacherID string, fb *synthesis.Feedback) (string, error) {
	id := s.id("fbk")
	data, err := json.Marshal(fb)
	if err != nil {
		return "", fmt.Errorf("store: marshal feedback: %w", err)
	}
	_, err = execRetry(ctx, s.db, `
		INSERT INTO feedback (id, teacher_id, student_name, score, feedback_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, teacherID, fb.StudentName, fb.Score, string(data), now())
	if err != nil {
		return "", fmt.Errorf("store: insert feedback: %w", err)
	}
	return id, nil
}

// InsertAssessment stores a generated assessment.
func (s *Store) InsertAssessment(ctx context.Context, teacherID, subject, unit string, a *synthesis.Assessment) (string, error) {
	id := s.id("asm")
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("store: marshal assessment: %w", err)
	}
	_, err = execRetry(ctx, s.db, `
		INSERT INTO assessments (id, teacher_id, subject, unit, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, teacherID, subject, unit, string(data), now())
	if err != nil {
		return "", fmt.Errorf("store: insert assessment: %w", err)
	}
	return id, nil
}

// InsertLectureNotes stores structured lecture notes.
func (s *Store) InsertLectureNotes(ctx context.Context, teacherID string, n *synthesis.LectureNotes) (string, error) {
	id := s.id("lec")
	cols := make([]string, 4)
	for i, v := range [][]string{n.Topics, n.Concepts, n.Definitions, n.Examples} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("store: marshal lecture notes: %w", err)
		}
		cols[i] = string(b)
	}
	_, err := execRetry(ctx, s.db, `
		INSERT INTO lecture_notes (id, teacher_id, title, summary, topics, concepts, definitions, examples, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, teacherID, n.Title, n.Summary, cols[0], cols[1], cols[2], cols[3], now())
	if err != nil {
		return "", fmt.Errorf("store: insert lecture notes: %w", err)
	}
	return id, nil
}
