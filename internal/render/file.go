package render

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultSubject = "Application: {AgencyName} - Candidate: {CandidateName}"

const defaultBody = `Dear {AgencyName} Recruitment Team,

My name is {CandidateName}. I am writing to introduce myself and to ask whether you are
recruiting for roles that match my experience.

Please find my CV attached for your consideration.

Kind regards,
{CandidateName}
`

// Default returns the built-in outreach template. {CandidateName} is not a
// table column; callers supply it through Bind.
func Default() Template {
	return Template{Subject: defaultSubject, Body: defaultBody}
}

// Bind returns a copy of t with the given constant values substituted,
// leaving all other placeholders intact.
func (t Template) Bind(values map[string]string) Template {
	lookup := func(name string) (string, bool) {
		if v, ok := values[name]; ok {
			return v, true
		}
		return "{" + name + "}", true
	}
	subject, _ := substitute(t.Subject, lookup)
	body, _ := substitute(t.Body, lookup)
	return Template{Subject: subject, Body: body}
}

// file is the on-disk YAML shape of a template.
type file struct {
	Subject string            `yaml:"subject"`
	Body    string            `yaml:"body"`
	Values  map[string]string `yaml:"values"`
}

// Parse reads a YAML template document:
//
//	subject: "Application: {AgencyName}"
//	body: |
//	  Dear {AgencyName} team, ...
//	values:
//	  CandidateName: Jane Doe
//
// Entries under values are bound into the template.
func Parse(r io.Reader) (Template, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Template{}, errors.New("template document is empty")
		}
		return Template{}, fmt.Errorf("decode template: %w", err)
	}
	if f.Subject == "" {
		return Template{}, errors.New("template subject is empty")
	}
	if f.Body == "" {
		return Template{}, errors.New("template body is empty")
	}

	t := Template{Subject: f.Subject, Body: f.Body}
	if len(f.Values) > 0 {
		t = t.Bind(f.Values)
	}
	return t, nil
}

// LoadFile reads a YAML template from path.
func LoadFile(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
