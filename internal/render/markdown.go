// Package render turns an AnalysisResult into Markdown, JSON or a plain
// terminal table.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
)

// Meta describes the source document of a result.
type Meta struct {
	Document string
	Pages    int
}

// Markdown writes r as a page with front matter, the overall summary and a
// chapter table.
func Markdown(w io.Writer, r ai.AnalysisResult, meta Meta) error {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"%s\"\n", escapeQuotes(r.Title))
	if meta.Document != "" {
		fmt.Fprintf(&b, "source: \"%s\"\n", escapeQuotes(meta.Document))
	}
	if meta.Pages > 0 {
		fmt.Fprintf(&b, "pages: %d\n", meta.Pages)
	}
	b.WriteString("---\n\n")

	b.WriteString("# ")
	b.WriteString(r.Title)
	b.WriteString("\n\n")
	if s := strings.TrimSpace(r.OverallSummary); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	b.WriteString("## Chapters\n\n")
	b.WriteString("| # | Title | Summary | Key points |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, ch := range r.Chapters {
		cells := []string{
			cell(ch.ChapterNumber),
			cell(ch.Title),
			cell(ch.Summary),
			keyPoints(ch.KeyPoints),
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdownFile writes r to <dir>/<slug of title>.md and returns the path.
func WriteMarkdownFile(dir string, r ai.AnalysisResult, meta Meta) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := Markdown(&b, r, meta); err != nil {
		return "", err
	}
	file := filepath.Join(dir, Slug(r.Title)+".md")
	if err := os.WriteFile(file, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return file, nil
}

// JSON writes r indented, with the same field names the model returns.
func JSON(w io.Writer, r ai.AnalysisResult) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func escapeQuotes(s string) string { return strings.ReplaceAll(s, "\"", "\\\"") }

var cellReplacer = strings.NewReplacer("|", "\\|", "\r\n", "<br>", "\n", "<br>")

func cell(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}

func keyPoints(points []string) string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = cell(p); p != "" {
			out = append(out, "• "+p)
		}
	}
	return strings.Join(out, "<br>")
}
