package extract

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// DecodeBody decodes a transport-encoded body payload. Providers drop
// base64 padding in transit, so the input is re-padded to a multiple
// of 4 before decoding; URL-safe alphabet is tried first, standard
// second. Failures degrade to an empty string with a warning, never an
// error: mail data is untrusted and the pipeline is best-effort.
func DecodeBody(raw string, logger *zap.Logger) string {
	if raw == "" {
		return ""
	}

	padded := raw
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}

	data, err := base64.URLEncoding.DecodeString(padded)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(padded)
	}
	if err != nil {
		if logger != nil {
			logger.Warn("failed to decode message body, dropping it",
				zap.Int("raw_len", len(raw)),
				zap.Error(err))
		}
		return ""
	}
	return string(data)
}

// Clean strips control and non-printable runes and collapses
// consecutive whitespace into single spaces.
func Clean(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, text)

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
}

// Truncate caps text at max runes without splitting a rune.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
