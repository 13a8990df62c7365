package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/app"
	"github.com/thywilljoshua/pdf-chapters/internal/document"
)

var (
	errNotPDF     = errors.New("only PDF files can be analyzed")
	errTooLarge   = errors.New("file is too large")
	errBadRequest = errors.New("bad request")
	errBlankKey   = fmt.Errorf("%w: an API key is required", errBadRequest)
)

// multipart headers and boundaries on top of the file itself
const formOverhead = 1 << 20

// readUpload pulls the "file" part out of a multipart form and checks it is a
// PDF by both its declared type and its content.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, errTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing file: %v", errBadRequest, err)
	}
	defer f.Close()

	if hdr.Size > s.maxUpload {
		return "", nil, errTooLarge
	}
	if mt, _, _ := mime.ParseMediaType(hdr.Header.Get("Content-Type")); mt != document.MIMETypePDF {
		return "", nil, errNotPDF
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, &document.ReadError{Err: err}
	}
	if !document.IsPDF(data) {
		return "", nil, errNotPDF
	}
	return hdr.Filename, data, nil
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotPDF):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), errors.Is(err, document.ErrRead):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrBusy), errors.Is(err, app.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// blankKey reports a blank key as a bad request rather than a missing
// credential.
func blankKey(err error) error {
	if errors.Is(err, ai.ErrMissingCredential) {
		return errBlankKey
	}
	return err
}

// userMessage is the text shown for err. Internal failures are not echoed.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errNotPDF), errors.Is(err, errTooLarge),
		errors.Is(err, app.ErrBusy), errors.Is(err, app.ErrNotReady):
		return err.Error()
	case errors.Is(err, ai.ErrMissingCredential), errors.Is(err, errBlankKey):
		return "An API key is required."
	case errors.Is(err, errBadRequest), errors.Is(err, document.ErrRead):
		return "The request could not be read."
	default:
		return "Something went wrong."
	}
}
