package document

import (
	"bytes"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	rpdf "rsc.io/pdf"
)

// DetectMIME sniffs the content type from the leading bytes.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is(MIMETypePDF)
}

// PageCount reports the number of pages. It is informational only: the
// model does the real parsing, so callers should not reject a document
// because this fails.
func PageCount(data []byte) (n int, err error) {
	// rsc.io/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading pdf: %v", r)
		}
	}()
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("reading pdf: %w", err)
	}
	return doc.NumPage(), nil
}
