// Package normalize cleans message content for display: it decodes MIME
// encoded-word subjects, repairs quoted-printable residue in HTML bodies
// and renders HTML as terminal text. Every function here is pure.
package normalize

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	base64Word = regexp.MustCompile(`(?i)=\?utf-8\?B\?([A-Za-z0-9+/=]+)\?=`)
	qpWord     = regexp.MustCompile(`(?i)=\?utf-8\?Q\?([^?]+)\?=`)
)

// DecodeSubject decodes the first UTF-8 MIME encoded-word in subject and
// splices the result in place. A Base64 word is tried before a
// quoted-printable one. When the payload cannot be decoded the raw subject
// is returned unchanged; this never fails.
func DecodeSubject(subject string) string {
	if loc := base64Word.FindStringSubmatchIndex(subject); loc != nil {
		decoded, ok := decodeBase64Word(subject[loc[2]:loc[3]])
		if !ok {
			zap.L().Debug("undecodable base64 subject", zap.String("subject", subject))
			return subject
		}
		return subject[:loc[0]] + decoded + subject[loc[1]:]
	}

	if loc := qpWord.FindStringSubmatchIndex(subject); loc != nil {
		decoded := decodeQWord(subject[loc[2]:loc[3]])
		return subject[:loc[0]] + decoded + subject[loc[1]:]
	}

	return subject
}

func decodeBase64Word(payload string) (string, bool) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some senders drop the padding.
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", false
		}
	}
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// decodeQWord applies the "Q" encoding: '_' is a space and =XX is a byte.
// A malformed escape is kept literally. Bytes that do not form valid UTF-8
// are read as Latin-1.
func decodeQWord(payload string) string {
	payload = strings.ReplaceAll(payload, "_", " ")

	buf := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c == '=' && i+2 < len(payload) {
			hi, okHi := unhex(payload[i+1])
			lo, okLo := unhex(payload[i+2])
			if okHi && okLo {
				buf = append(buf, hi<<4|lo)
				i += 2
				continue
			}
		}
		buf = append(buf, c)
	}

	if utf8.Valid(buf) {
		return string(buf)
	}
	runes := make([]rune, len(buf))
	for i, b := range buf {
		runes[i] = rune(b)
	}
	return string(runes)
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
