package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/app"
	"github.com/thywilljoshua/pdf-chapters/internal/document"
)

var validate = validator.New()

// envelope wraps every JSON API response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type stateView struct {
	State         app.State          `json:"state"`
	Generation    uint64             `json:"generation"`
	HasCredential bool               `json:"hasCredential"`
	Document      string             `json:"document,omitempty"`
	Pages         int                `json:"pages,omitempty"`
	Message       string             `json:"message,omitempty"`
	Result        *ai.AnalysisResult `json:"result,omitempty"`
}

func newStateView(s app.Snapshot) stateView {
	return stateView{
		State:         s.State,
		Generation:    s.Generation,
		HasCredential: s.HasCredential,
		Document:      s.Document,
		Pages:         s.Pages,
		Message:       s.Message,
		Result:        s.Result,
	}
}

type keyRequest struct {
	Key string `json:"key" validate:"required"`
}

type analyzeRequest struct {
	Name string `json:"name" validate:"required"`
	// Data is raw base64 or a data URL.
	Data string `json:"data" validate:"required"`
}

type apiFunc func(http.ResponseWriter, *http.Request) (int, envelope, error)

func (s *Server) wrap(h apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body, err := h(w, r)
		if err != nil {
			status = statusFor(err)
			body = envelope{Status: "error", Error: userMessage(err)}
			if status >= http.StatusInternalServerError {
				s.log.Error("api request failed", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
			} else {
				s.log.Debug("api request refused", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
			}
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok(data any) envelope { return envelope{Status: "ok", Data: data} }

func (s *Server) apiState(w http.ResponseWriter, r *http.Request) (int, envelope, error) {
	return http.StatusOK, ok(newStateView(s.ctrl.Snapshot())), nil
}

func (s *Server) apiSetKey(w http.ResponseWriter, r *http.Request) (int, envelope, error) {
	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, envelope{}, err
	}
	if err := s.ctrl.SetCredential(req.Key); err != nil {
		return 0, envelope{}, blankKey(err)
	}
	return http.StatusOK, envelope{Status: "ok", Message: "API key stored"}, nil
}

func (s *Server) apiClearKey(w http.ResponseWriter, r *http.Request) (int, envelope, error) {
	if err := s.ctrl.ClearCredential(); err != nil {
		return 0, envelope{}, err
	}
	return http.StatusOK, envelope{Status: "ok", Message: "API key removed"}, nil
}

func (s *Server) apiReset(w http.ResponseWriter, r *http.Request) (int, envelope, error) {
	s.ctrl.Reset()
	return http.StatusOK, ok(newStateView(s.ctrl.Snapshot())), nil
}

func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) (int, envelope, error) {
	var (
		name string
		data []byte
		err  error
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		name, data, err = s.readUpload(w, r)
	} else {
		name, data, err = s.readInline(w, r)
	}
	if err != nil {
		return 0, envelope{}, err
	}

	gen, err := s.ctrl.Submit(r.Context(), app.NewDocument(name, data))
	if err != nil {
		return 0, envelope{}, err
	}
	return http.StatusAccepted, envelope{
		Status:  "ok",
		Message: "analysis started",
		Data:    map[string]any{"generation": gen},
	}, nil
}

// readInline accepts {"name", "data"} with the PDF as base64 or a data URL.
func (s *Server) readInline(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	// base64 inflates by 4/3
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload/3*4+formOverhead)
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", nil, err
	}
	data, err := document.Decode(req.Data)
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > s.maxUpload {
		return "", nil, errTooLarge
	}
	if !document.IsPDF(data) {
		return "", nil, errNotPDF
	}
	return req.Name, data, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errTooLarge
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
