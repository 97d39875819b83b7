package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribe_JSONResponse(t *testing.T) {
	var gotName string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotBytes, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello class"}`))
	}))
	defer srv.Close()

	c := New(WithEndpoint(srv.URL))
	audio := writeAudio(t, "lecture.mp3", []byte("fake-mp3-bytes"))

	text, err := c.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello class" {
		t.Fatalf("text = %q", text)
	}
	if gotName != "lecture.mp3" {
		t.Fatalf("filename = %q", gotName)
	}
	if string(gotBytes) != "fake-mp3-bytes" {
		t.Fatalf("upload = %q", gotBytes)
	}
}

func TestTranscribe_PlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain transcript"))
	}))
	defer srv.Close()

	c := New(WithEndpoint(srv.URL))
	audio := writeAudio(t, "a.wav", []byte("x"))

	text, err := c.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "plain transcript" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribe_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(WithEndpoint(srv.URL))
	audio := writeAudio(t, "a.wav", []byte("x"))

	if _, err := c.Transcribe(context.Background(), audio); err == nil {
		t.Fatal("want error on 503")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	c := New(WithEndpoint("http://localhost:1"))
	if _, err := c.Transcribe(context.Background(), "/nonexistent.mp3"); err == nil {
		t.Fatal("want error on missing file")
	}
}
