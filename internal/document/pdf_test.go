package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-chapters/internal/testutil"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF(testutil.SamplePDF(t, 1)))
	assert.Equal(t, MIMETypePDF, DetectMIME(testutil.SamplePDF(t, 1)))

	assert.False(t, IsPDF([]byte("plain text, not a pdf")))
	assert.False(t, IsPDF([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(testutil.SamplePDF(t, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPageCount_NotAPDF(t *testing.T) {
	n, err := PageCount([]byte("hello"))
	assert.Error(t, err)
	assert.Zero(t, n)
}
