package lecture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mentorai/backend/synthesis"
)

type fakeTranscriber struct {
	text string
	err  error
	got  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.got = path
	return f.text, f.err
}

type fakeAnalyzer struct {
	notes *synthesis.LectureNotes
	err   error
}

func (f *fakeAnalyzer) AnalyzeLecture(context.Context, string) (*synthesis.LectureNotes, synthesis.Outcome, error) {
	if f.err != nil {
		return nil, synthesis.Failed, f.err
	}
	return f.notes, synthesis.Completed, nil
}

type fakePersister struct {
	id  string
	err error
}

func (f *fakePersister) InsertLectureNotes(context.Context, string, *synthesis.LectureNotes) (string, error) {
	return f.id, f.err
}

type fakeScheduler struct {
	paths  []string
	delays []time.Duration
}

func (f *fakeScheduler) Schedule(_ context.Context, path string, delay time.Duration) error {
	f.paths = append(f.paths, path)
	f.delays = append(f.delays, delay)
	return nil
}

func fakeRender(notes *synthesis.LectureNotes, path string) error {
	return os.WriteFile(path, []byte("%PDF-fake"), 0o644)
}

func testNotes() *synthesis.LectureNotes {
	return &synthesis.LectureNotes{Title: "Optics", Summary: "lenses", Topics: []string{"refraction"}}
}

func TestProcess(t *testing.T) {
	tr := &fakeTranscriber{text: "today we cover refraction"}
	sched := &fakeScheduler{}
	p := New(tr, &fakeAnalyzer{notes: testNotes()}, &fakePersister{id: "lec_1"}, sched,
		WithRenderer(fakeRender), WithCleanupWait(time.Minute))

	res, err := p.Process(context.Background(), "t1", "week3.mp3", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.DocumentName != "Lecture_Notes_week3.pdf" {
		t.Fatalf("DocumentName = %q", res.DocumentName)
	}
	if data, err := os.ReadFile(res.DocumentPath); err != nil || len(data) == 0 {
		t.Fatalf("document not written: %v", err)
	}
	if !res.Persistence.OK || res.Persistence.ID != "lec_1" {
		t.Fatalf("persistence = %+v", res.Persistence)
	}

	// transcriber received the saved upload, not the original name
	if filepath.Ext(tr.got) != ".mp3" {
		t.Fatalf("transcriber path = %q", tr.got)
	}

	// work dir handed to the scheduler, not removed inline
	if len(sched.paths) != 1 || sched.delays[0] != time.Minute {
		t.Fatalf("scheduler calls = %v %v", sched.paths, sched.delays)
	}
	if filepath.Dir(res.DocumentPath) != sched.paths[0] {
		t.Fatalf("scheduled %q, doc in %q", sched.paths[0], res.DocumentPath)
	}
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	p := New(&fakeTranscriber{}, &fakeAnalyzer{}, nil, nil, WithRenderer(fakeRender))

	_, err := p.Process(context.Background(), "t1", "slides.pdf", strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), ".mp3") {
		t.Fatalf("error does not list supported formats: %v", err)
	}
}

func TestProcess_CaseInsensitiveExtension(t *testing.T) {
	p := New(&fakeTranscriber{text: "words"}, &fakeAnalyzer{notes: testNotes()}, nil, &fakeScheduler{},
		WithRenderer(fakeRender))

	if _, err := p.Process(context.Background(), "t1", "TALK.MP3", strings.NewReader("x")); err != nil {
		t.Fatalf("Process: %v", err)
	}
}

func TestProcess_EmptyTranscript(t *testing.T) {
	p := New(&fakeTranscriber{text: "   \n"}, &fakeAnalyzer{notes: testNotes()}, nil, nil,
		WithRenderer(fakeRender))

	_, err := p.Process(context.Background(), "t1", "a.wav", strings.NewReader("x"))
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcess_TranscriberError(t *testing.T) {
	p := New(&fakeTranscriber{err: errors.New("service down")}, &fakeAnalyzer{}, nil, nil,
		WithRenderer(fakeRender))

	_, err := p.Process(context.Background(), "t1", "a.wav", strings.NewReader("x"))
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcess_PersistenceFailureNonBlocking(t *testing.T) {
	p := New(&fakeTranscriber{text: "words"}, &fakeAnalyzer{notes: testNotes()},
		&fakePersister{err: errors.New("db down")}, &fakeScheduler{},
		WithRenderer(fakeRender))

	res, err := p.Process(context.Background(), "t1", "a.wav", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Persistence.OK {
		t.Fatal("persistence reported OK despite failure")
	}
	if res.Persistence.Reason == "" {
		t.Fatal("persistence failure carries no reason")
	}
}

func TestProcess_AnalyzerErrorCleansUp(t *testing.T) {
	base := t.TempDir()
	p := New(&fakeTranscriber{text: "words"}, &fakeAnalyzer{err: errors.New("synthesis down")}, nil, nil,
		WithRenderer(fakeRender), WithTempBase(base))

	if _, err := p.Process(context.Background(), "t1", "a.wav", strings.NewReader("x")); err == nil {
		t.Fatal("want error")
	}

	// failed runs must not leave work directories behind
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("leftover dirs: %v", entries)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) != 7 {
		t.Fatalf("formats = %v", formats)
	}
	for i := 1; i < len(formats); i++ {
		if formats[i-1] >= formats[i] {
			t.Fatalf("not sorted: %v", formats)
		}
	}
}
