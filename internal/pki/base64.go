package pki

import (
	"encoding/base64"
	"strings"
)

// EncodeBase64 encodes with the standard padded alphabet.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes leniently and never fails.
//
// Both the standard and URL-safe alphabets are accepted, decoding stops at the first
// '=', any other character is skipped and a dangling final sextet is dropped. Callers
// get whatever bytes can be recovered from the input, possibly none.
func DecodeBase64(s string) []byte {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '=':
			return decodeRaw(b.String())
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
			b.WriteRune(r)
		case r == '-':
			b.WriteByte('+')
		case r == '_':
			b.WriteByte('/')
		}
	}

	return decodeRaw(b.String())
}

func decodeRaw(clean string) []byte {
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}

	// non-strict decoding ignores the unused low bits of the final quantum
	out, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return []byte{}
	}
	return out
}
