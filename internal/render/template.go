// Package render fills subject and body templates with contact fields.
//
// A placeholder is an identifier wrapped in single braces, e.g. {AgencyName}.
// Any other use of braces is literal text. Substitution is a single pass, so
// braces inside contact values are never interpreted.
package render

import (
	"fmt"
	"strings"

	"github.com/blockedby/autorecruit/internal/models"
)

// Template is a subject/body pair with {Field} placeholders.
type Template struct {
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
}

// Message is a rendered template.
type Message struct {
	Subject string
	Body    string
}

// MissingPlaceholderError names a placeholder the contact has no field for.
type MissingPlaceholderError struct {
	Name string
	Row  int
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing placeholder {%s} for row %d", e.Name, e.Row)
}

// Render substitutes every placeholder with the contact's field value.
func (t Template) Render(c models.Contact) (Message, error) {
	lookup := func(name string) (string, bool) { return c.Get(name) }

	subject, missing := substitute(t.Subject, lookup)
	if missing != "" {
		return Message{}, &MissingPlaceholderError{Name: missing, Row: c.Row}
	}
	body, missing := substitute(t.Body, lookup)
	if missing != "" {
		return Message{}, &MissingPlaceholderError{Name: missing, Row: c.Row}
	}

	// header injection guard: a subject is a single line
	subject = strings.Join(strings.Fields(subject), " ")

	return Message{Subject: subject, Body: body}, nil
}

// RenderMap renders against a plain field map (used by previews).
func (t Template) RenderMap(fields map[string]string) (Message, error) {
	return t.Render(models.Contact{Fields: fields})
}

// Placeholders returns the distinct placeholder names in subject then body order.
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range []string{t.Subject, t.Body} {
		scan(s, func(name string) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		})
	}
	return out
}

// Check returns the placeholders not provided by any of the given columns.
func (t Template) Check(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}

	var missing []string
	for _, p := range t.Placeholders() {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// Preview renders the template against the first contact.
func (t Template) Preview(contacts []models.Contact) (Message, bool, error) {
	if len(contacts) == 0 {
		return Message{}, false, nil
	}
	msg, err := t.Render(contacts[0])
	return msg, true, err
}

// substitute replaces placeholders in s. It returns the first unresolved
// placeholder name, or "".
func substitute(s string, lookup func(string) (string, bool)) (string, string) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] == '{' {
			if name, end, ok := placeholderAt(s, i); ok {
				v, found := lookup(name)
				if !found {
					return "", name
				}
				b.WriteString(v)
				i = end
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), ""
}

func scan(s string, fn func(string)) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if name, end, ok := placeholderAt(s, i); ok {
			fn(name)
			i = end - 1
		}
	}
}

// placeholderAt reports whether s[i:] starts with a placeholder. Names start
// with a letter or underscore and may contain letters, digits, '_', '-', '.'
// and inner spaces, so headers like {E-mail Address} work. end is the index
// after the closing brace.
func placeholderAt(s string, i int) (name string, end int, ok bool) {
	j := i + 1
	if j >= len(s) || !isNameStart(s[j]) {
		return "", 0, false
	}
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	if j >= len(s) || s[j] != '}' || s[j-1] == ' ' {
		return "", 0, false
	}
	return s[i+1 : j], j + 1, true
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == ' '
}
