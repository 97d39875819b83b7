package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mentorai/backend/config"
	"github.com/mentorai/backend/extract"
	"github.com/mentorai/backend/idgen"
	"github.com/mentorai/backend/insight"
	"github.com/mentorai/backend/lecture"
	"github.com/mentorai/backend/mailer"
	"github.com/mentorai/backend/store"
	"github.com/mentorai/backend/synthesis"
	"github.com/mentorai/backend/tabular"
)

// maxUploadBytes caps multipart uploads (lecture audio is the largest).
const maxUploadBytes = 100 << 20

type server struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	gateway    *synthesis.Gateway
	analyzer   *tabular.Analyzer
	extractor  *extract.Extractor
	detector   *insight.Detector
	engagement *insight.Engagement
	pipeline   *lecture.Pipeline
	mail       mailer.Service
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Post("/analyze-marks", s.handleAnalyzeMarks)
		r.Post("/analyze-syllabus", s.handleAnalyzeSyllabus)
		r.Post("/upload-text-material", s.handleUploadTextMaterial)
		r.Post("/analyze-attendance", s.handleAnalyzeAttendance)
		r.Post("/lecture-to-notes", s.handleLectureToNotes)
		r.Get("/engagement", s.handleEngagement)
	})

	r.Route("/academic", func(r chi.Router) {
		r.Post("/generate-assessment", s.handleGenerateAssessment)
		r.Post("/generate-assessment-from-material", s.handleAssessmentFromMaterial)
		r.Post("/generate-feedback", s.handleGenerateFeedback)
		r.Post("/learning-gaps", s.handleLearningGaps)
	})

	r.Post("/notifications/send-attendance-alerts", s.handleAttendanceAlerts)

	return r
}

// --- analytics ---

func (s *server) handleAnalyzeMarks(w http.ResponseWriter, r *http.Request) {
	data, _, err := readUpload(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	summary, err := s.analyzer.AnalyzeMarks(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	narrative := fmt.Sprintf("%s Topics tested: %s", summary.Narrative, formValue(r, "topics_covered", "General"))

	mi, outcome, err := s.gateway.AnalyzeMarks(r.Context(), narrative)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if _, err := s.store.InsertMarks(r.Context(), store.MarksRow{
		TeacherID:          teacherID(r),
		AverageScore:       summary.AverageScore,
		RiskStudentsCount:  len(summary.RiskStudents),
		PerformanceSummary: mi.PerformanceSummary,
	}); err != nil {
		s.logger.Warn("marks persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"average_score":       summary.AverageScore,
		"total_students":      summary.StudentCount,
		"risk_students":       summary.RiskStudents,
		"weak_topics":         summary.WeakTopics,
		"performance_summary": mi.PerformanceSummary,
		"teaching_strategy":   mi.TeachingStrategy,
		"outcome":             outcome,
	})
}

func (s *server) handleAnalyzeSyllabus(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subject := formValue(r, "subject", "General")
	unit := formValue(r, "unit", "General")

	res, err := s.extractor.Extract(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.Quality.Low {
		writeError(w, http.StatusBadRequest, errors.New(
			"could not extract usable text from this PDF; it may be a scan or image-based. Paste the text into /analytics/upload-text-material instead"))
		return
	}

	materialID, err := s.store.InsertMaterial(r.Context(), store.Material{
		TeacherID: teacherID(r),
		Subject:   subject,
		Unit:      unit,
		Title:     filename,
		Content:   res.Text,
		FileName:  filename,
		WordCount: len(strings.Fields(res.Text)),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	si, outcome, err := s.gateway.AnalyzeSyllabus(r.Context(), res.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.InsertSyllabus(r.Context(), store.SyllabusRow{
		TeacherID:       teacherID(r),
		MajorTopics:     si.MajorTopics,
		AssessmentFocus: si.AssessmentFocus,
	}); err != nil {
		s.logger.Warn("syllabus persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"material_id":            materialID,
		"word_count":             len(strings.Fields(res.Text)),
		"extracted_text_preview": preview(res.Text, 500),
		"extraction_quality":     res.Quality,
		"major_topics":           si.MajorTopics,
		"assessment_focus":       si.AssessmentFocus,
		"outcome":                outcome,
		"message":                "Material stored and analyzed. Use material_id to generate assessments from this content.",
	})
}

func (s *server) handleUploadTextMaterial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Unit    string `json:"unit"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("content is required"))
		return
	}
	if req.Subject == "" {
		req.Subject = "General"
	}
	if req.Unit == "" {
		req.Unit = "General"
	}
	if req.Title == "" {
		req.Title = fmt.Sprintf("%s_%s_text", req.Subject, req.Unit)
	}

	materialID, err := s.store.InsertMaterial(r.Context(), store.Material{
		TeacherID: teacherID(r),
		Subject:   req.Subject,
		Unit:      req.Unit,
		Title:     req.Title,
		Content:   req.Content,
		FileName:  "manual_upload.txt",
		WordCount: len(strings.Fields(req.Content)),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	si, outcome, err := s.gateway.AnalyzeSyllabus(r.Context(), req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.InsertSyllabus(r.Context(), store.SyllabusRow{
		TeacherID:       teacherID(r),
		MajorTopics:     si.MajorTopics,
		AssessmentFocus: si.AssessmentFocus,
	}); err != nil {
		s.logger.Warn("syllabus persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"material_id":      materialID,
		"word_count":       len(strings.Fields(req.Content)),
		"major_topics":     si.MajorTopics,
		"assessment_focus": si.AssessmentFocus,
		"outcome":          outcome,
	})
}

func (s *server) handleAnalyzeAttendance(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subject := formValue(r, "subject", "General")

	var records []tabular.AttendanceRecord
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		records, err = s.analyzer.ParseAttendance(data)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		res, xerr := s.extractor.Extract(data)
		if xerr != nil {
			s.fail(w, r, xerr)
			return
		}
		if res.Quality.Low {
			writeError(w, http.StatusBadRequest,
				errors.New("could not extract usable text from this PDF attendance sheet; upload a CSV instead"))
			return
		}
		entries, _, perr := s.gateway.ParseAttendanceText(r.Context(), res.Text)
		if perr != nil {
			s.fail(w, r, perr)
			return
		}
		for _, e := range entries {
			records = append(records, tabular.AttendanceRecord{
				StudentName: e.StudentName,
				Status:      tabular.AttendanceStatus(e.Status),
			})
		}
	default:
		writeError(w, http.StatusBadRequest, errors.New("only CSV and PDF attendance files are supported"))
		return
	}

	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no attendance records could be extracted from the provided file"))
		return
	}

	rows := make([]store.AttendanceRow, 0, len(records))
	absent := 0
	for _, rec := range records {
		if rec.Status == tabular.Absent {
			absent++
		}
		rows = append(rows, store.AttendanceRow{
			TeacherID:   teacherID(r),
			StudentName: rec.StudentName,
			Status:      string(rec.Status),
			Subject:     subject,
		})
	}
	if err := s.store.InsertAttendance(r.Context(), rows); err != nil {
		s.fail(w, r, err)
		return
	}

	summary := fmt.Sprintf("Total records analyzed for %s: %d. Absences: %d.", subject, len(records), absent)
	ai, outcome, err := s.gateway.AnalyzeAttendance(r.Context(), summary)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_records":    len(records),
		"absent_count":     absent,
		"risk_analysis":    ai.RiskAnalysis,
		"engagement_score": ai.EngagementScore,
		"suggestions":      ai.Suggestions,
		"outcome":          outcome,
		"message":          fmt.Sprintf("Successfully analyzed %d records from %s.", len(records), filename),
	})
}

func (s *server) handleLectureToNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart field %q is required: %w", "file", err))
		return
	}
	defer file.Close()

	res, err := s.pipeline.Process(r.Context(), teacherID(r), header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.DocumentName))
	w.Header().Set("X-Persistence-Ok", fmt.Sprintf("%t", res.Persistence.OK))
	http.ServeFile(w, r, res.DocumentPath)
}

func (s *server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	marks, err := s.store.LatestMarks(r.Context(), 3)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	att, err := s.store.RecentAttendance(r.Context(), 100)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	snapshots := make([]insight.MarksSnapshot, 0, len(marks))
	for _, m := range marks {
		snapshots = append(snapshots, insight.MarksSnapshot{
			AverageScore:       m.AverageScore,
			PerformanceSummary: m.PerformanceSummary,
		})
	}
	counts := insight.AttendanceCounts{Total: len(att)}
	for _, a := range att {
		if a.Status == "Present" {
			counts.Present++
		}
	}

	report, err := s.engagement.Analyze(r.Context(), snapshots, counts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- academic ---

func (s *server) handleGenerateAssessment(w http.ResponseWriter, r *http.Request) {
	var spec synthesis.AssessmentSpec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if spec.Subject == "" || spec.Unit == "" {
		writeError(w, http.StatusBadRequest, errors.New("subject and unit are required"))
		return
	}

	a, outcome, err := s.gateway.GenerateAssessment(r.Context(), spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.InsertAssessment(r.Context(), teacherID(r), spec.Subject, spec.Unit, a); err != nil {
		s.logger.Warn("assessment persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome, "assessment": a})
}

func (s *server) handleAssessmentFromMaterial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaterialID string `json:"material_id"`
		synthesis.AssessmentSpec
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MaterialID == "" {
		writeError(w, http.StatusBadRequest, errors.New("material_id is required"))
		return
	}
	if _, err := idgen.Parse(strings.TrimPrefix(req.MaterialID, "mat_")); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("material_id: %w", err))
		return
	}

	material, err := s.store.GetMaterial(r.Context(), req.MaterialID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	spec := req.AssessmentSpec
	if spec.Subject == "" {
		spec.Subject = material.Subject
	}
	if spec.Unit == "" {
		spec.Unit = material.Unit
	}

	a, outcome, err := s.gateway.GenerateAssessmentFromContent(r.Context(), material.Content, spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.InsertAssessment(r.Context(), teacherID(r), spec.Subject, spec.Unit, a); err != nil {
		s.logger.Warn("assessment persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome, "assessment": a})
}

func (s *server) handleGenerateFeedback(w http.ResponseWriter, r *http.Request) {
	var spec synthesis.FeedbackSpec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if spec.StudentName == "" {
		writeError(w, http.StatusBadRequest, errors.New("student_name is required"))
		return
	}

	fb, outcome, err := s.gateway.GenerateFeedback(r.Context(), spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.store.InsertFeedback(r.Context(), teacherID(r), fb); err != nil {
		s.logger.Warn("feedback persistence failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome, "feedback": fb})
}

func (s *server) handleLearningGaps(w http.ResponseWriter, r *http.Request) {
	marks, err := s.store.LatestMarks(r.Context(), 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var performance string
	if len(marks) > 0 {
		performance = marks[0].PerformanceSummary
	}

	var topics []string
	syllabus, err := s.store.LatestSyllabus(r.Context())
	if err == nil {
		topics = syllabus.MajorTopics
	} else if !errors.Is(err, store.ErrNotFound) {
		s.fail(w, r, err)
		return
	}

	report, err := s.detector.Detect(r.Context(), performance, topics)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- notifications ---

func (s *server) handleAttendanceAlerts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Threshold float64           `json:"threshold"`
		Roster    map[string]string `json:"roster"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Threshold <= 0 {
		req.Threshold = s.cfg.Analysis.AttendanceThreshold
	}
	if len(req.Roster) == 0 {
		writeError(w, http.StatusBadRequest,
			errors.New("roster (student name to email) is required to deliver alerts"))
		return
	}

	rows, err := s.store.RecentAttendance(r.Context(), 1000)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, errors.New("no attendance records found"))
		return
	}

	marks := make([]mailer.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, mailer.Mark{StudentName: row.StudentName, Status: row.Status})
	}
	stats := mailer.Aggregate(marks, func(name string) (string, bool) {
		email, ok := req.Roster[name]
		return email, ok
	})
	low := mailer.LowAttendance(stats, req.Threshold)

	if len(low) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "No students with low attendance found",
			"threshold":   req.Threshold,
			"alerts_sent": 0,
		})
		return
	}

	report := s.mail.Send(r.Context(), mailer.BuildAttendanceAlerts(low))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":                 "Attendance alerts processed",
		"threshold":               req.Threshold,
		"students_identified":     len(low),
		"emails_sent":             report.Sent,
		"emails_failed":           report.Failed,
		"low_attendance_students": low,
	})
}

// --- helpers ---

// fail maps domain sentinels to HTTP statuses: client mistakes get 4xx with
// a corrective message, upstream collaborator failures get 502.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var serr *synthesis.Error
	switch {
	case errors.Is(err, tabular.ErrSchema),
		errors.Is(err, extract.ErrParse),
		errors.Is(err, lecture.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, insight.ErrMissingUpstream):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, lecture.ErrTranscription), errors.As(err, &serr):
		writeError(w, http.StatusBadGateway, err)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// teacherID identifies the acting teacher. Auth is out of scope; deployments
// front this service with a gateway that sets the header.
func teacherID(r *http.Request) string {
	return r.Header.Get("X-Teacher-ID")
}

func readUpload(r *http.Request, field string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("multipart field %q is required: %w", field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}
	return data, header.Filename, nil
}

func formValue(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
