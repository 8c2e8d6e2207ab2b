package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Masked is written in place of a sensitive value.
const Masked = "***redacted***"

// SensitiveKeys are matched case-insensitively as substrings of JSON field
// names. Matching fields have their string value masked.
var SensitiveKeys = []string{"password", "passwd", "secret", "token", "apikey", "api_key"}

// Redactor masks sensitive fields of JSON log lines before they reach the
// wrapped writer. It also masks literal occurrences of the secret values
// it was built with, wherever they appear in a line.
type Redactor struct {
	w      io.Writer
	fields *regexp.Regexp
	values *regexp.Regexp
}

// NewRedactor returns a Redactor writing to w. Empty secrets are ignored.
func NewRedactor(w io.Writer, secrets ...string) *Redactor {
	keys := make([]string, len(SensitiveKeys))
	for i, k := range SensitiveKeys {
		keys[i] = regexp.QuoteMeta(k)
	}
	r := &Redactor{
		w: w,
		// A JSON string value may contain escaped quotes.
		fields: regexp.MustCompile(`(?i)("[^"\\]*(?:` + strings.Join(keys, "|") + `)[^"\\]*"\s*:\s*)"(?:[^"\\]|\\.)*"`),
	}
	var lits []string
	for _, s := range secrets {
		if s == "" {
			continue
		}
		lits = append(lits, regexp.QuoteMeta(jsonEscaped(s)))
	}
	if len(lits) > 0 {
		r.values = regexp.MustCompile(strings.Join(lits, "|"))
	}
	return r
}

// jsonEscaped is s as it appears inside a JSON string.
func jsonEscaped(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(b[1 : len(b)-1])
}

// Write reports len(p) on success even when the masked line differs in
// length, so multi-writers do not treat it as a short write.
func (r *Redactor) Write(p []byte) (int, error) {
	out := r.fields.ReplaceAll(p, []byte(`${1}"`+Masked+`"`))
	if r.values != nil {
		out = r.values.ReplaceAllLiteral(out, []byte(Masked))
	}
	if _, err := r.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Secret describes a sensitive value by its length only.
func Secret(val string) string {
	if val == "" {
		return ""
	}
	return fmt.Sprintf("%s (%d)", Masked, len(val))
}
