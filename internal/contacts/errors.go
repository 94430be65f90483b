package contacts

import "fmt"

// MalformedInputError reports a contacts table that cannot be turned into
// records: unreadable content, a missing header row, or an unusable header.
type MalformedInputError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed contacts table %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(source, reason string, err error) error {
	return &MalformedInputError{Source: source, Reason: reason, Err: err}
}
