package web

import (
	"bytes"
	"html/template"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/app"
	"github.com/thywilljoshua/pdf-chapters/internal/render"
)

var viewFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

type page struct {
	View     string
	Snapshot app.Snapshot
	Notice   string
	MaxMB    int64
	KeyURL   string
}

// viewFor picks the screen for a snapshot. Without a credential only the key
// prompt is shown.
func viewFor(s app.Snapshot) string {
	if !s.HasCredential {
		return "key"
	}
	switch s.State {
	case app.StateAnalyzing:
		return "loading"
	case app.StateSuccess:
		if s.Result != nil {
			return "result"
		}
	}
	return "upload"
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, notice string) {
	snap := s.ctrl.Snapshot()
	p := page{
		View:     viewFor(snap),
		Snapshot: snap,
		Notice:   notice,
		MaxMB:    s.maxUpload >> 20,
		KeyURL:   KeyIssueURL,
	}
	var buf bytes.Buffer
	if err := s.views.ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.Error("rendering view", zap.String("view", p.View), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func seeOther(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "")
}

func (s *Server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SetCredential(r.PostFormValue("key")); err != nil {
		err = blankKey(err)
		s.render(w, r, statusFor(err), userMessage(err))
		return
	}
	seeOther(w, r)
}

func (s *Server) handleClearKey(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ClearCredential(); err != nil {
		s.render(w, r, http.StatusInternalServerError, "The API key could not be removed.")
		return
	}
	seeOther(w, r)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.log.Warn("upload rejected", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		s.render(w, r, statusFor(err), userMessage(err))
		return
	}
	if _, err := s.ctrl.Submit(r.Context(), app.NewDocument(name, data)); err != nil {
		s.render(w, r, statusFor(err), userMessage(err))
		return
	}
	seeOther(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	seeOther(w, r)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	if snap.State != app.StateSuccess || snap.Result == nil {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	meta := render.Meta{Document: snap.Document, Pages: snap.Pages}
	if err := render.Markdown(&buf, *snap.Result, meta); err != nil {
		s.log.Error("rendering markdown", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	name := render.Slug(strings.TrimSuffix(snap.Document, ".pdf")) + ".md"
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	buf.WriteTo(w)
}
