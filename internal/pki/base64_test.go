package pki

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeBase64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "padded", input: "aGVsbG8=", want: []byte("hello")},
		{name: "unpadded", input: "aGVsbG8", want: []byte("hello")},
		{name: "whitespace skipped", input: "aGVs bG8=\n", want: []byte("hello")},
		{name: "stops at padding", input: "aGVsbG8=aGVsbG8=", want: []byte("hello")},
		{name: "url safe alphabet", input: "-_8", want: []byte{0xfb, 0xff}},
		{name: "garbage recovers bytes", input: "%%%not-base64%%%", want: []byte{0x9e, 0x8b, 0x7e, 0x6d, 0xab, 0x1e, 0xeb}},
		{name: "empty", input: "", want: []byte{}},
		{name: "single dangling character", input: "a", want: []byte{}},
		{name: "only invalid characters", input: "%%%", want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeBase64(tt.input)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeBase64(t *testing.T) {
	require.Equal(t, "aGVsbG8=", EncodeBase64([]byte("hello")))
	require.Equal(t, []byte("hello"), DecodeBase64(EncodeBase64([]byte("hello"))))
}
