package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// bufferPool is used to reuse buffers for template execution.
var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// DefaultExecutionTimeout is the maximum time allowed for one render.
const DefaultExecutionTimeout = 5 * time.Second

// Renderer fills notification templates with their variables. Parsed
// templates are cached by source text.
type Renderer struct {
	mu               sync.RWMutex
	parsed           map[string]*template.Template
	funcMap          template.FuncMap
	executionTimeout time.Duration
}

// NewRenderer creates a renderer. Zero or negative timeouts use
// DefaultExecutionTimeout.
func NewRenderer(timeout time.Duration) *Renderer {
	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}
	return &Renderer{
		parsed:           make(map[string]*template.Template),
		funcMap:          createFuncMap(),
		executionTimeout: timeout,
	}
}

// Render renders the subject and the body of tmpl. Variables missing from
// vars render empty.
func (r *Renderer) Render(ctx context.Context, tmpl ports.Template, vars map[string]string) (ports.Template, error) {
	ctx, cancel := context.WithTimeout(ctx, r.executionTimeout)
	defer cancel()

	subject, err := r.renderString(ctx, tmpl.Subject, vars)
	if err != nil {
		return ports.Template{}, err
	}
	body, err := r.renderString(ctx, tmpl.Body, vars)
	if err != nil {
		return ports.Template{}, err
	}
	return ports.Template{Subject: strings.TrimSpace(subject), Body: body}, nil
}

func (r *Renderer) renderString(ctx context.Context, text string, vars map[string]string) (string, error) {
	const op = "notification.Render"

	tmpl, err := r.parse(text)
	if err != nil {
		return "", dterrors.Wrap(err, dterrors.KindValidation, op, "failed to parse template")
	}
	return executeWithTimeout(ctx, op, tmpl, vars)
}

func (r *Renderer) parse(text string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.parsed[text]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New("notification").Funcs(r.funcMap).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.parsed[text] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// executeWithTimeout runs tmpl in its own goroutine so a runaway template
// cannot block the delivery past ctx.
func executeWithTimeout(ctx context.Context, op string, tmpl *template.Template, data any) (string, error) {
	type result struct {
		output string
		err    error
	}

	done := make(chan result, 1)

	go func() {
		buf := bufferPool.Get().(*bytes.Buffer)
		buf.Reset()

		defer func() {
			bufferPool.Put(buf)

			if rec := recover(); rec != nil {
				done <- result{err: dterrors.Internal(op, fmt.Sprintf("template execution panicked: %v", rec))}
			}
		}()

		if err := tmpl.Execute(buf, data); err != nil {
			done <- result{err: dterrors.Wrap(err, dterrors.KindValidation, op, "failed to render template")}
			return
		}

		done <- result{output: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", dterrors.DependencyWrap(ctx.Err(), op, "template execution timed out")
	case r := <-done:
		return r.output, r.err
	}
}

func createFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   titleCase,
		"trim":    strings.TrimSpace,
		"default": defaultFunc,
	}
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// defaultFunc returns def when value is empty.
func defaultFunc(def, value string) string {
	if value == "" {
		return def
	}
	return value
}
