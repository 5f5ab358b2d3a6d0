// Package render turns a named template plus a flat string-variable map into
// the subject, HTML, and plaintext parts of an outbound notification.
//
// The renderer is deliberately dumb: it has no side effects, performs no
// currency math or formatting (monetary values must arrive already
// formatted), and substitutes an empty string for any variable the caller
// did not supply. Partial data therefore never blocks delivery; callers that
// need completeness validate their variables before rendering.
package render

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template names registered by NewRegistry.
const (
	TemplateQuoteDeposit = "quote-deposit"
	TemplateQuoteFull    = "quote-full"
)

// ErrTemplateNotFound is returned when Render is called with an unknown
// template name. This is a programmer/config error, not a per-send condition.
var ErrTemplateNotFound = errors.New("template not found")

// Output is the rendered (subject, html, text) triple consumed by the
// transport chain.
type Output struct {
	Subject string
	HTML    string
	Text    string
}

// compiled holds the three parsed parts of one named template.
type compiled struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// Registry holds the named templates available to the pipeline. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	templates map[string]*compiled
}

// NewRegistry builds a registry containing the built-in quote templates.
// Template parse errors panic: a malformed built-in is a programming error
// that must surface at process start, not inside a send.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*compiled)}
	r.mustAdd(TemplateQuoteDeposit, quoteSubject, quoteHTML, quoteDepositText)
	r.mustAdd(TemplateQuoteFull, quoteSubject, quoteHTML, quoteFullText)
	return r
}

// Names returns the registered template names, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}
	return names
}

// Render executes the named template against vars and returns the rendered
// triple. Unknown names return ErrTemplateNotFound. Variables referenced by
// the template but absent from vars render as empty strings.
//
// Render is pure and deterministic for given inputs; it may be called
// concurrently and repeatedly.
func (r *Registry) Render(name string, vars map[string]string) (Output, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return Output{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if vars == nil {
		vars = map[string]string{}
	}

	var out Output
	var buf strings.Builder
	if err := tpl.subject.Execute(&buf, vars); err != nil {
		return Output{}, fmt.Errorf("render subject %q: %w", name, err)
	}
	out.Subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := tpl.html.Execute(&buf, vars); err != nil {
		return Output{}, fmt.Errorf("render html %q: %w", name, err)
	}
	out.HTML = buf.String()

	buf.Reset()
	if err := tpl.text.Execute(&buf, vars); err != nil {
		return Output{}, fmt.Errorf("render text %q: %w", name, err)
	}
	out.Text = buf.String()

	return out, nil
}

// mustAdd parses and registers one named template, panicking on parse errors.
func (r *Registry) mustAdd(name, subject, html, text string) {
	r.templates[name] = &compiled{
		subject: texttemplate.Must(texttemplate.New(name + ":subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + ":html").Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name + ":text").Parse(text)),
	}
}
