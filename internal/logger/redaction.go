package logger

import (
	"io"
	"regexp"
)

// Redactor masks credentials before they reach a log sink. Tool arguments
// and queries are caller-supplied, so anything that looks like a key or
// token gets replaced regardless of which field carried it.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor creates a redactor with the default pattern set.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			// Vendor API keys
			regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),

			// Bearer tokens
			regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),

			// AWS access keys
			regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

			// key=value style credentials
			regexp.MustCompile(`(?i)password["\s:=]+[^\s"]+`),
			regexp.MustCompile(`(?i)api[_-]?key["\s:=]+[a-zA-Z0-9._-]{12,}`),
			regexp.MustCompile(`(?i)token["\s:=]+[a-zA-Z0-9._-]{20,}`),
			regexp.MustCompile(`(?i)secret["\s:=]+[^\s"]+`),
		},
	}
}

// AddPattern adds a custom redaction pattern.
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}

// Redact masks every pattern match in s.
func (r *Redactor) Redact(s string) string {
	for _, pattern := range r.patterns {
		s = pattern.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// Wrap returns a writer that redacts everything written through it.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	redacted := w.redactor.Redact(string(p))
	if _, err := w.writer.Write([]byte(redacted)); err != nil {
		return 0, err
	}
	// Report the original length so zerolog does not see short writes
	// when redaction changes the size.
	return len(p), nil
}
