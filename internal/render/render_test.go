package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
)

var q3Report = ai.AnalysisResult{
	Title:          "Q3 Report",
	OverallSummary: "Revenue grew.",
	Chapters: []ai.ChapterSummary{
		{ChapterNumber: "1", Title: "Intro", Summary: "Overview.", KeyPoints: []string{"a", "b", "c"}},
	},
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, q3Report, Meta{Document: "report.pdf", Pages: 2}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "---\ntitle: \"Q3 Report\"\nsource: \"report.pdf\"\npages: 2\n---\n\n# Q3 Report\n\nRevenue grew.\n\n"))
	assert.Contains(t, out, "| # | Title | Summary | Key points |\n")
	assert.Contains(t, out, "| 1 | Intro | Overview. | • a<br>• b<br>• c |\n")
	assert.Equal(t, 1, strings.Count(out, "| 1 |"))
}

func TestMarkdown_EscapesCells(t *testing.T) {
	r := ai.AnalysisResult{
		Title:          `The "Best" Plan`,
		OverallSummary: "x",
		Chapters: []ai.ChapterSummary{
			{ChapterNumber: "2", Title: "A | B", Summary: "line one\nline two", KeyPoints: []string{}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, r, Meta{}))
	out := buf.String()

	assert.Contains(t, out, `title: "The \"Best\" Plan"`)
	assert.NotContains(t, out, "source:")
	assert.NotContains(t, out, "pages:")
	assert.Contains(t, out, `| 2 | A \| B | line one<br>line two |  |`)
}

func TestWriteMarkdownFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteMarkdownFile(dir, q3Report, Meta{Document: "report.pdf"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q3-report.md"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "# Q3 Report")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, q3Report))

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Contains(t, fields, "overallSummary")
	assert.Contains(t, buf.String(), "\n  \"title\": \"Q3 Report\"")
	assert.Contains(t, buf.String(), `"chapterNumber": "1"`)
	assert.Contains(t, buf.String(), `"keyPoints": [`)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, q3Report, Meta{Document: "report.pdf", Pages: 2}))
	lines := strings.Split(buf.String(), "\n")

	assert.Equal(t, "Q3 Report", lines[0])
	assert.Equal(t, "(report.pdf, 2 pages)", lines[1])
	assert.Contains(t, buf.String(), "Revenue grew.")

	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "1 ") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "Intro", "Overview."}, strings.Fields(rows[0]))
	assert.Contains(t, buf.String(), "- a\n")
	assert.Contains(t, buf.String(), "- c\n")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Q3 Report", "q3-report"},
		{"  Hello, World!  ", "hello-world"},
		{"a/b.c", "a-b-c"},
		{"2024 연간 보고서", "2024-연간-보고서"},
		{"---", "analysis"},
		{"", "analysis"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}
