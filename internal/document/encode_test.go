package document

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-chapters/internal/testutil"
)

func TestEncode_NoDataURIPrefix(t *testing.T) {
	for _, pages := range []int{1, 3, 12} {
		data := testutil.SamplePDF(t, pages)

		got, err := Encode(strings.NewReader(string(data)))
		require.NoError(t, err)

		assert.False(t, strings.HasPrefix(got, "data:"))
		assert.NotContains(t, got, ",")
		decoded, err := base64.StdEncoding.DecodeString(got)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	}
}

func TestEncode_ReadFailure(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := Encode(iotest.ErrReader(boom))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, boom)
}

func TestEncode_Empty(t *testing.T) {
	_, err := Encode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrRead)
}

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pdf data uri", "data:application/pdf;base64,JVBERi0x", "JVBERi0x"},
		{"octet stream", "data:application/octet-stream;base64,AAAA", "AAAA"},
		{"raw base64", "JVBERi0x", "JVBERi0x"},
		{"surrounding space", "  data:application/pdf;base64,JVBERi0x\n", "JVBERi0x"},
		{"no comma", "data:application/pdf", "data:application/pdf"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDataURI(tt.input))
		})
	}
}

func TestDecode(t *testing.T) {
	data, err := Decode("data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, err = Decode("not base64!!")
	assert.ErrorIs(t, err, ErrRead)

	_, err = Decode("data:application/pdf;base64,")
	assert.ErrorIs(t, err, ErrRead)
}
