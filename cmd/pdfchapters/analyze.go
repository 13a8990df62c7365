package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/app"
	"github.com/thywilljoshua/pdf-chapters/internal/document"
	"github.com/thywilljoshua/pdf-chapters/internal/render"
)

var errNoKey = errors.New("no API key stored; run `pdfchapters key set` first")

func analyzeCmd(rt *rootOptions) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Summarize one PDF and print the chapter table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, err := formatter(format)
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if !document.IsPDF(data) {
				return fmt.Errorf("%s is not a PDF (detected %s)", path, document.DetectMIME(data))
			}

			cfg, log, err := rt.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctrl := app.New(newFileStore(cfg), newAnalyzer(cfg, log), log)
			doc := app.NewDocument(filepath.Base(path), data)
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s…\n", doc.Name)

			snap, err := ctrl.Run(ctx, doc)
			if errors.Is(err, ai.ErrMissingCredential) {
				return errNoKey
			}
			if err != nil {
				return err
			}
			if snap.State != app.StateSuccess || snap.Result == nil {
				return errors.New(snap.Message)
			}

			meta := render.Meta{Document: snap.Document, Pages: snap.Pages}
			if err := write(cmd.OutOrStdout(), *snap.Result, meta); err != nil {
				return err
			}
			if out != "" {
				file, err := render.WriteMarkdownFile(out, *snap.Result, meta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", file)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|markdown")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write <title>.md into this directory")
	return cmd
}

type writeFunc func(io.Writer, ai.AnalysisResult, render.Meta) error

func formatter(name string) (writeFunc, error) {
	switch name {
	case "table", "":
		return render.Table, nil
	case "markdown", "md":
		return render.Markdown, nil
	case "json":
		return func(w io.Writer, r ai.AnalysisResult, _ render.Meta) error {
			return render.JSON(w, r)
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (table|json|markdown)", name)
	}
}
