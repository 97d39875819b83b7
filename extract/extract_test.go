package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtract_Simple(t *testing.T) {
	raw := buildTextPDF("Photosynthesis converts light energy into chemical energy stored in glucose molecules")

	e := New(Config{})
	res, err := e.Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "Photosynthesis") {
		t.Errorf("text = %q, want content", res.Text)
	}
	if res.WordCount == 0 {
		t.Error("expected non-zero word count")
	}
	if res.Quality.Low {
		t.Errorf("quality flagged low for normal text: %+v", res.Quality)
	}
}

func TestExtract_Corrupt(t *testing.T) {
	e := New(Config{})
	_, err := e.Extract([]byte("not a pdf at all"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	raw := buildTextPDF("Cell division proceeds through prophase metaphase anaphase telophase")
	e := New(Config{})

	a, err := e.Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	if a.Text != b.Text || a.Quality != b.Quality {
		t.Errorf("extraction not idempotent:\n first: %+v\nsecond: %+v", a, b)
	}
}

func TestExtract_LowQuality(t *testing.T) {
	raw := buildTextPDF("12 945 3381 4471 58 6714 83 921 007 1145 2236")
	e := New(Config{})
	res, err := e.Extract(raw)
	if err != nil {
		t.Fatalf("low quality must not be an error: %v", err)
	}
	if !res.Quality.Low {
		t.Errorf("quality = %+v, want Low=true", res.Quality)
	}
}

func TestStreamText_Layout(t *testing.T) {
	data := []byte("BT\n(Unit 1) Tj\n0 -14 Td\n(Unit 2) Tj\nET")
	compact := streamText(data, false)
	layout := streamText(data, true)
	if strings.Contains(compact, "\n") {
		t.Errorf("compact = %q, want no line breaks", compact)
	}
	if !strings.Contains(layout, "\n") {
		t.Errorf("layout = %q, want line break between rows", layout)
	}
}

func TestLiteralSweep(t *testing.T) {
	data := []byte("q 1 0 0 1 10 10 cm (hidden) oddop (text) weird Q")
	got := literalSweep(data)
	if !strings.Contains(got, "hidden") || !strings.Contains(got, "text") {
		t.Errorf("sweep = %q, want both literals", got)
	}
}

func TestDropPageNumberArtifacts(t *testing.T) {
	dominated := "1\n2\n3\nIntro\n4\n5"
	got := dropPageNumberArtifacts(dominated)
	if strings.Contains(got, "4") || !strings.Contains(got, "Intro") {
		t.Errorf("dominated: got %q", got)
	}

	body := "Chapter one discusses mitosis\n7\nChapter two covers meiosis in depth\nChapter three reviews both"
	if got := dropPageNumberArtifacts(body); !strings.Contains(got, "7") {
		t.Errorf("minority artifact removed: %q", got)
	}
}

func TestDigitRatio(t *testing.T) {
	if r := digitRatio("1234 5678"); r != 1.0 {
		t.Errorf("all digits: ratio = %f, want 1.0", r)
	}
	if r := digitRatio("abcd efgh"); r != 0.0 {
		t.Errorf("no digits: ratio = %f, want 0.0", r)
	}
	if r := digitRatio(""); r != 0.0 {
		t.Errorf("empty: ratio = %f, want 0.0", r)
	}
}

// --- PDF test helper ---

// buildTextPDF creates a valid single-page PDF with proper xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "(", `\(`)
	escaped = strings.ReplaceAll(escaped, ")", `\)`)

	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Length ")
	b.WriteString(itoa(len(stream)))
	b.WriteString(" >>\nstream\n")
	b.WriteString(stream)
	b.WriteString("\nendstream\nendobj\n")

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(padOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n")
	b.WriteString(itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func padOffset(n int) string {
	s := itoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
