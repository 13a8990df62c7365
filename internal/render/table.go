package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
)

// Table writes r for a terminal: title, overall summary, then one row per
// chapter with its key points listed underneath.
func Table(w io.Writer, r ai.AnalysisResult, meta Meta) error {
	fmt.Fprintln(w, r.Title)
	if meta.Document != "" {
		if meta.Pages > 0 {
			fmt.Fprintf(w, "(%s, %d pages)\n", meta.Document, meta.Pages)
		} else {
			fmt.Fprintf(w, "(%s)\n", meta.Document)
		}
	}
	fmt.Fprintln(w)
	if s := strings.TrimSpace(r.OverallSummary); s != "" {
		fmt.Fprintln(w, s)
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tSUMMARY")
	for _, ch := range r.Chapters {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", oneLine(ch.ChapterNumber), oneLine(ch.Title), oneLine(ch.Summary))
		for _, p := range ch.KeyPoints {
			fmt.Fprintf(tw, "\t\t- %s\n", oneLine(p))
		}
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
