// Package extract turns PDF bytes into usable text with layered fallback
// strategies and a quality gate.
//
// Extraction is pure: the same input bytes always produce the same text and
// the same quality classification. A corrupt byte stream is a hard failure
// (ErrParse); output that looks like metadata or page numbers is a soft
// signal on Result.Quality, never an error — callers branch on the flag and
// can ask the user for manual text submission instead.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrParse is returned when the PDF byte stream cannot be read at all.
var ErrParse = errors.New("extract: unreadable pdf")

// Config holds the extraction thresholds. The defaults reproduce the
// behaviour the heuristics were tuned on; none of the values is load-bearing
// beyond that, which is why they are parameters and not constants.
type Config struct {
	// MinPageChars is the per-page floor below which the page is retried
	// with the layout-preserving decode.
	MinPageChars int

	// MinTotalChars is the global floor below which the alternate literal
	// sweep runs over the whole document.
	MinTotalChars int

	// LowQualityMaxChars and LowQualityDigitRatio define the quality gate:
	// output shorter than MaxChars whose digit fraction exceeds the ratio is
	// classified low-quality (likely a scanned or image-based PDF).
	LowQualityMaxChars   int
	LowQualityDigitRatio float64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MinPageChars <= 0 {
		c.MinPageChars = 50
	}
	if c.MinTotalChars <= 0 {
		c.MinTotalChars = 100
	}
	if c.LowQualityMaxChars <= 0 {
		c.LowQualityMaxChars = 200
	}
	if c.LowQualityDigitRatio <= 0 {
		c.LowQualityDigitRatio = 0.5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Quality captures metrics about an extraction.
type Quality struct {
	PageCount  int     `json:"page_count"`
	Chars      int     `json:"chars"`
	DigitRatio float64 `json:"digit_ratio"`

	// Low marks output whose composition suggests the source was image-based
	// or metadata-dominated rather than genuine body text. The text may still
	// be partially usable.
	Low bool `json:"low"`
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text      string  `json:"text"`
	WordCount int     `json:"word_count"`
	Quality   Quality `json:"quality"`
}

// Extractor extracts text from PDF bytes.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Extract runs the layered strategies over the PDF and returns the text with
// its quality classification.
func (e *Extractor) Extract(pdf []byte) (*Result, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// Strategy 1: page-wise operator decode; short pages retried with the
	// layout-preserving mode, keeping whichever yields more.
	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		data := pageContent(ctx, pageNr)
		if len(data) == 0 {
			continue
		}
		text := streamText(data, false)
		if len([]rune(text)) < e.cfg.MinPageChars {
			if layout := streamText(data, true); len(layout) > len(text) {
				text = layout
			}
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	text := strings.Join(pages, "\n")

	// Strategy 2: below the global floor, sweep every content stream for
	// string literals regardless of operator structure and keep the longer
	// output. Catches encodings where positioning operators confuse the
	// primary decode.
	if len([]rune(text)) < e.cfg.MinTotalChars {
		var sweep []string
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if s := literalSweep(pageContent(ctx, pageNr)); s != "" {
				sweep = append(sweep, s)
			}
		}
		if alt := strings.Join(sweep, "\n"); len(strings.TrimSpace(alt)) > len(strings.TrimSpace(text)) {
			e.logger.Debug("extract: literal sweep won", "primary", len(text), "sweep", len(alt))
			text = alt
		}
	}

	text = dropPageNumberArtifacts(strings.TrimSpace(text))

	q := Quality{
		PageCount:  ctx.PageCount,
		Chars:      len([]rune(text)),
		DigitRatio: digitRatio(text),
	}
	q.Low = q.Chars == 0 ||
		(q.Chars < e.cfg.LowQualityMaxChars && q.DigitRatio > e.cfg.LowQualityDigitRatio)

	return &Result{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Quality:   q,
	}, nil
}

// pageContent returns the decoded content stream of a page, or nil.
func pageContent(ctx *model.Context, pageNr int) []byte {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return nil
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil
	}
	return buf.Bytes()
}

// dropPageNumberArtifacts removes lines that are purely numeric and under 3
// characters, but only when such lines dominate the output — scattered page
// numbers inside real body text are harmless and kept.
func dropPageNumberArtifacts(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	artifacts := 0
	for _, line := range lines {
		if isPageNumberArtifact(line) {
			artifacts++
		}
	}
	if artifacts == 0 || artifacts*2 < len(lines) {
		return text
	}
	kept := lines[:0]
	for _, line := range lines {
		if !isPageNumberArtifact(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isPageNumberArtifact(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) >= 3 {
		return false
	}
	for _, r := range line {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// digitRatio returns the fraction of non-space characters that are digits.
func digitRatio(text string) float64 {
	total, digits := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}
