package fileid

import (
	"encoding/base64"
	"strings"
)

// trailerByte terminates every framed id. A decoded blob that does not end
// with it is rejected.
const trailerByte = 0x02

// maxZeroRun is the largest run a single (0, count) pair can describe.
const maxZeroRun = 255

// EncodeString returns the textual form of id: the binary layout with its
// zero runs compressed, followed by the trailer byte, in unpadded URL-safe
// base64.
func EncodeString(id Identifier) (string, error) {
	blob, err := Encode(id)
	if err != nil {
		return "", err
	}
	framed := append(rleEncode(blob), trailerByte)
	return base64.RawURLEncoding.EncodeToString(framed), nil
}

// DecodeString parses the textual form produced by EncodeString. Trailing
// base64 padding is accepted.
func DecodeString(s string) (Identifier, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, invalidf("bad base64: %v", err)
	}
	if len(raw) == 0 || raw[len(raw)-1] != trailerByte {
		return nil, invalidf("missing trailer byte")
	}
	blob, err := rleDecode(raw[:len(raw)-1])
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

func rleEncode(b []byte) []byte {
	out := make([]byte, 0, len(b))
	run := 0
	flush := func() {
		for run > 0 {
			n := min(run, maxZeroRun)
			out = append(out, 0, byte(n))
			run -= n
		}
	}
	for _, c := range b {
		if c == 0 {
			run++
			continue
		}
		flush()
		out = append(out, c)
	}
	flush()
	return out
}

func rleDecode(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b)*2)
	for i := 0; i < len(b); i++ {
		if b[i] != 0 {
			out = append(out, b[i])
			continue
		}
		if i+1 >= len(b) {
			return nil, invalidf("zero run without a count")
		}
		i++
		out = append(out, make([]byte, b[i])...)
	}
	return out, nil
}
