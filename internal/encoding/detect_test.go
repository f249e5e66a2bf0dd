package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/vykazy/internal/encoding"
)

func TestNewUTF8Reader(t *testing.T) {
	const want = "Částka,Měna\nNájem,15000\n"

	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "UTF8Passthrough",
			input: []byte(want),
		},
		{
			name:  "UTF8BOM",
			input: append([]byte{0xEF, 0xBB, 0xBF}, want...),
		},
		{
			name: "UTF16LE",
			input: func() []byte {
				out := []byte{0xFF, 0xFE}
				for _, r := range want {
					out = append(out, byte(r), byte(r>>8))
				}

				return out
			}(),
		},
		{
			name: "UTF16BE",
			input: func() []byte {
				out := []byte{0xFE, 0xFF}
				for _, r := range want {
					out = append(out, byte(r>>8), byte(r))
				}

				return out
			}(),
		},
		{
			// Č = 0xC8, á = 0xE1, ě = 0xEC in both Windows-1250 and ISO-8859-2.
			name: "Windows1250",
			input: []byte{
				0xC8, 0xE1, 's', 't', 'k', 'a', ',', 'M', 0xEC, 'n', 'a', '\n',
				'N', 0xE1, 'j', 'e', 'm', ',', '1', '5', '0', '0', '0', '\n',
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	got, err := encoding.ReadAll(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAll_LargeInput(t *testing.T) {
	// Larger than the detection window.
	input := bytes.Repeat([]byte("Grafika,2,5\n"), 1000)

	got, err := encoding.ReadAll(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, input, got)
}
