// Package security redacts personal data and credentials from operator
// facing output such as logs and failure listings.
package security

import (
	"io"
	"regexp"
	"strings"
	"sync"
)

var (
	emailPattern  = regexp.MustCompile(`([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`)
	keyPattern    = regexp.MustCompile(`(?i)((?:api[_-]?key|x-api-key|password|token)["']?\s*[:=]\s*["']?)[^\s"',&]+`)
)

const redacted = "[REDACTED]"

// Redact masks email addresses down to their first letter and domain and
// removes bearer tokens and key=value credentials.
func Redact(s string) string {
	if s == "" {
		return s
	}
	if strings.Contains(s, "@") {
		s = emailPattern.ReplaceAllString(s, "$1***@$2")
	}
	s = bearerPattern.ReplaceAllString(s, "${1}"+redacted)
	return keyPattern.ReplaceAllString(s, "${1}"+redacted)
}

// Masker applies Redact while enabled.
type Masker struct {
	enabled bool
	mu      sync.RWMutex
}

// NewMasker creates a Masker.
func NewMasker(enabled bool) *Masker {
	return &Masker{enabled: enabled}
}

// Enable turns masking on.
func (m *Masker) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Disable turns masking off.
func (m *Masker) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// IsEnabled reports whether masking is on.
func (m *Masker) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Mask redacts s when masking is enabled.
func (m *Masker) Mask(s string) string {
	if !m.IsEnabled() {
		return s
	}
	return Redact(s)
}

// MaskBytes redacts b when masking is enabled.
func (m *Masker) MaskBytes(b []byte) []byte {
	if !m.IsEnabled() {
		return b
	}
	return []byte(Redact(string(b)))
}

// MaskMap redacts the string values of m, recursing into nested maps and
// slices. m is not modified.
func (m *Masker) MaskMap(in map[string]any) map[string]any {
	if !m.IsEnabled() {
		return in
	}
	return maskMap(in)
}

func maskMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = maskValue(v)
	}
	return out
}

func maskValue(v any) any {
	switch val := v.(type) {
	case string:
		return Redact(val)
	case map[string]any:
		return maskMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = maskValue(item)
		}
		return out
	default:
		return v
	}
}

// MaskedWriter redacts everything written through it. Each Write must
// carry whole records, which holds for log handlers.
type MaskedWriter struct {
	w io.Writer
	m *Masker
}

// NewMaskedWriter wraps w with m.
func NewMaskedWriter(w io.Writer, m *Masker) *MaskedWriter {
	return &MaskedWriter{w: w, m: m}
}

// Write implements io.Writer. It reports len(p) on success since callers
// do not expect the redacted length.
func (mw *MaskedWriter) Write(p []byte) (int, error) {
	if _, err := mw.w.Write(mw.m.MaskBytes(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
