package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const MIMETypePDF = "application/pdf"

// ErrRead is matched by every failure to read or decode a document.
var ErrRead = errors.New("document could not be read")

type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRead, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrRead, e.Err} }

// Encode reads r to the end and returns its contents as raw base64.
func Encode(r io.Reader) (string, error) {
	var buf bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	n, err := io.Copy(enc, r)
	if err != nil {
		return "", &ReadError{Err: err}
	}
	if err := enc.Close(); err != nil {
		return "", &ReadError{Err: err}
	}
	if n == 0 {
		return "", &ReadError{Err: errors.New("empty document")}
	}
	return buf.String(), nil
}

// StripDataURI drops a "data:<mime>;base64," header if present.
func StripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i != -1 {
		return s[i+1:]
	}
	return s
}

// Decode accepts raw base64 or a data URI and returns the bytes.
func Decode(s string) ([]byte, error) {
	s = StripDataURI(s)
	if s == "" {
		return nil, &ReadError{Err: errors.New("empty document")}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return data, nil
}
