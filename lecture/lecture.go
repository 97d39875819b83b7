// Package lecture turns recorded lecture audio into structured study notes
// and a downloadable PDF.
//
// Flow: audio upload -> transcription -> note synthesis -> PDF render ->
// best-effort persistence. The rendered file lives in a per-request temp
// directory whose removal is deferred until after the response is streamed.
package lecture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mentorai/backend/notespdf"
	"github.com/mentorai/backend/synthesis"
)

var (
	// ErrUnsupportedFormat reports an audio extension outside the allow-list.
	ErrUnsupportedFormat = errors.New("lecture: unsupported audio format")
	// ErrTranscription reports a failed or empty transcription.
	ErrTranscription = errors.New("lecture: transcription failed")
)

// allowed audio extensions, lowercase with dot.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".mpeg": true,
	".mpga": true,
	".mp4":  true,
}

// SupportedFormats returns the accepted audio extensions, sorted.
func SupportedFormats() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Analyzer structures a transcript into lecture notes.
type Analyzer interface {
	AnalyzeLecture(ctx context.Context, transcript string) (*synthesis.LectureNotes, synthesis.Outcome, error)
}

// Persister stores the structured notes.
type Persister interface {
	InsertLectureNotes(ctx context.Context, teacherID string, n *synthesis.LectureNotes) (string, error)
}

// Scheduler defers removal of a work directory.
type Scheduler interface {
	Schedule(ctx context.Context, path string, delay time.Duration) error
}

// Renderer writes notes to a PDF file. Swappable in tests.
type Renderer func(notes *synthesis.LectureNotes, path string) error

// PersistenceOutcome records whether the notes reached the database.
// Persistence is best-effort: the caller still gets the document when the
// database is down.
type PersistenceOutcome struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Result is a successful pipeline run.
type Result struct {
	DocumentPath string
	DocumentName string
	Notes        *synthesis.LectureNotes
	Persistence  PersistenceOutcome
}

// Pipeline wires the lecture processing stages.
type Pipeline struct {
	transcriber Transcriber
	analyzer    Analyzer
	persister   Persister
	scheduler   Scheduler
	render      Renderer
	logger      *slog.Logger
	cleanupWait time.Duration
	tempBase    string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRenderer swaps the PDF renderer.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.render = r }
}

// WithCleanupWait sets the grace period before the work directory is
// removed. It must outlast response streaming. Default: 5 minutes.
func WithCleanupWait(d time.Duration) Option {
	return func(p *Pipeline) { p.cleanupWait = d }
}

// WithTempBase sets the parent directory for per-request work directories.
// Default: the system temp directory.
func WithTempBase(dir string) Option {
	return func(p *Pipeline) { p.tempBase = dir }
}

// New creates a Pipeline. Persister and Scheduler may be nil: persistence is
// skipped and cleanup becomes immediate best-effort removal after the
// grace period cannot be scheduled.
func New(t Transcriber, a Analyzer, persister Persister, scheduler Scheduler, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: t,
		analyzer:    a,
		persister:   persister,
		scheduler:   scheduler,
		render:      notespdf.Render,
		logger:      slog.Default(),
		cleanupWait: 5 * time.Minute,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs the pipeline for one uploaded audio stream. filename is the
// client-supplied name, used for format detection and for naming the output
// document.
func (p *Pipeline) Process(ctx context.Context, teacherID, filename string, audio io.Reader) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, ext, strings.Join(SupportedFormats(), ", "))
	}

	workDir, err := os.MkdirTemp(p.tempBase, "lecture-*")
	if err != nil {
		return nil, fmt.Errorf("lecture: create work dir: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			os.RemoveAll(workDir)
		}
	}()

	audioPath := filepath.Join(workDir, "upload"+ext)
	if err := writeFile(audioPath, audio); err != nil {
		return nil, fmt.Errorf("lecture: save upload: %w", err)
	}

	p.logger.Info("transcribing lecture audio", slog.String("file", filename))
	transcript, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript", ErrTranscription)
	}

	notes, _, err := p.analyzer.AnalyzeLecture(ctx, transcript)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	docName := fmt.Sprintf("Lecture_Notes_%s.pdf", base)
	docPath := filepath.Join(workDir, docName)
	if err := p.render(notes, docPath); err != nil {
		return nil, err
	}

	res := &Result{
		DocumentPath: docPath,
		DocumentName: docName,
		Notes:        notes,
		Persistence:  p.persist(ctx, teacherID, notes),
	}

	// the caller still needs docPath; hand the directory to the janitor
	keep = true
	if p.scheduler != nil {
		if err := p.scheduler.Schedule(ctx, workDir, p.cleanupWait); err != nil {
			p.logger.Warn("scheduling cleanup failed, directory will leak until next sweep",
				slog.String("dir", workDir), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

func (p *Pipeline) persist(ctx context.Context, teacherID string, notes *synthesis.LectureNotes) PersistenceOutcome {
	if p.persister == nil {
		return PersistenceOutcome{OK: false, Reason: "persistence disabled"}
	}
	id, err := p.persister.InsertLectureNotes(ctx, teacherID, notes)
	if err != nil {
		p.logger.Warn("lecture notes persistence failed", slog.String("error", err.Error()))
		return PersistenceOutcome{OK: false, Reason: err.Error()}
	}
	return PersistenceOutcome{OK: true, ID: id}
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
