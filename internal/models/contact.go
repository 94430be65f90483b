// Package models defines shared data types for the application.
package models

// Canonical column names recognized in a contacts table.
const (
	FieldAgencyName = "AgencyName"
	FieldCity       = "City"
	FieldEmail      = "Email"
	FieldWebsite    = "Website"
	FieldNotes      = "Notes"
)

// Contact is one recruiter row from an uploaded table.
// Row is the 1-based position among data rows and identifies the contact.
type Contact struct {
	Row     int               `json:"row"`
	Columns []string          `json:"columns"`
	Fields  map[string]string `json:"fields"`
}

// Get returns the value of a named field.
func (c Contact) Get(name string) (string, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

// AgencyName returns the AgencyName field or "".
func (c Contact) AgencyName() string { return c.Fields[FieldAgencyName] }

// City returns the City field or "".
func (c Contact) City() string { return c.Fields[FieldCity] }

// Email returns the Email field or "".
func (c Contact) Email() string { return c.Fields[FieldEmail] }
