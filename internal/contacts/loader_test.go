package contacts

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/blockedby/autorecruit/internal/models"
)

func TestLoad_CSVPreservesOrderAndFields(t *testing.T) {
	input := "AgencyName,City,Email,Specialty\n" +
		"Acme,Cape Town,a@x.com,Finance\n" +
		"Beta,Durban,invalid-email,Data\n" +
		"Gamma,Pretoria,g@x.com,\n"

	got, err := Load("recruiters.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Acme", got[0].AgencyName())
	assert.Equal(t, "Cape Town", got[0].City())
	assert.Equal(t, "a@x.com", got[0].Email())
	v, ok := got[0].Get("Specialty")
	assert.True(t, ok)
	assert.Equal(t, "Finance", v)

	// email syntax is not validated at load time
	assert.Equal(t, "invalid-email", got[1].Email())

	for i, c := range got {
		assert.Equal(t, i+1, c.Row)
	}
	assert.Equal(t, []string{"AgencyName", "City", "Email", "Specialty", "Website", "Notes"}, got[0].Columns)
}

func TestLoad_HeaderCaseKept(t *testing.T) {
	got, err := Load("r.csv", strings.NewReader("AgencyName,Email,contactPerson\nAcme,a@x.com,Sam\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, ok := got[0].Get("contactPerson")
	assert.True(t, ok)
	_, ok = got[0].Get("ContactPerson")
	assert.False(t, ok)
}

func TestLoad_Aliases(t *testing.T) {
	input := "Company,E-mail Address,Location,Web\n" +
		"Acme,a@x.com,Cape Town,acme.example\n"

	got, err := Load("r.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "Acme", c.AgencyName())
	assert.Equal(t, "a@x.com", c.Email())
	assert.Equal(t, "Cape Town", c.City())
	v, _ := c.Get(models.FieldWebsite)
	assert.Equal(t, "acme.example", v)

	// original headers remain usable
	v, _ = c.Get("Company")
	assert.Equal(t, "Acme", v)
}

func TestLoad_MissingCanonicalColumnsDefaultEmpty(t *testing.T) {
	got, err := Load("r.csv", strings.NewReader("Email\na@x.com\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	for _, f := range []string{models.FieldAgencyName, models.FieldCity, models.FieldWebsite, models.FieldNotes} {
		v, ok := got[0].Get(f)
		assert.True(t, ok, f)
		assert.Empty(t, v, f)
	}
}

func TestLoad_SkipsBlankRowsAndPadsShortRows(t *testing.T) {
	input := "AgencyName,City,Email\n" +
		"Acme,Cape Town,a@x.com\n" +
		",,\n" +
		"Beta\n"

	got, err := Load("r.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Row)
	assert.Equal(t, 3, got[1].Row, "row identity keeps the source position")
	assert.Equal(t, "Beta", got[1].AgencyName())
	assert.Equal(t, "", got[1].Email())
}

func TestLoad_StripsBOM(t *testing.T) {
	got, err := Load("r.csv", strings.NewReader("\ufeffAgencyName,Email\nAcme,a@x.com\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].AgencyName())
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"empty file", "", "table is empty"},
		{"blank header", ",,\nAcme,Cape Town,a@x.com\n", "missing header row"},
		{"data instead of header", "Acme,Cape Town,a@x.com\nBeta,Durban,b@x.com\n", "missing header row"},
		{"duplicate header", "Email,Email\na@x.com,b@x.com\n", "duplicate header"},
		{"no email column", "AgencyName,City\nAcme,Cape Town\n", "no Email column"},
		{"broken quoting", "AgencyName,Email\n\"Acme,a@x.com\n", "invalid CSV"},
		{"brace in header", "Agency{Name},Email\nAcme,a@x.com\n", "braces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("r.csv", strings.NewReader(tt.input))
			require.Error(t, err)

			var merr *MalformedInputError
			require.True(t, errors.As(err, &merr), "expected MalformedInputError, got %T", err)
			assert.Contains(t, merr.Reason, tt.reason)
			assert.Equal(t, "r.csv", merr.Source)
		})
	}
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"AgencyName", "City", "Email"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Acme", "Cape Town", "a@x.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Beta", "Durban", "b@x.com"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := Load("recruiters.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme", got[0].AgencyName())
	assert.Equal(t, "Durban", got[1].City())
	assert.Equal(t, "b@x.com", got[1].Email())
}

func TestLoad_XLSXGarbage(t *testing.T) {
	_, err := Load("recruiters.xlsx", strings.NewReader("not a zip"))

	var merr *MalformedInputError
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, merr.Reason, "invalid XLSX")
}

func TestLoad_LegacyXLSRejected(t *testing.T) {
	// a header that would parse as CSV must not be read from an .xls name
	_, err := Load("recruiters.xls", strings.NewReader("AgencyName,Email\nAcme,a@x.com\n"))

	var merr *MalformedInputError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "recruiters.xls", merr.Source)
	assert.Contains(t, merr.Reason, "legacy .xls")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.csv")
	require.NoError(t, os.WriteFile(path, []byte("AgencyName,Email\nAcme,a@x.com\n"), 0644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("a.XLSX"))
	assert.Equal(t, FormatCSV, DetectFormat("a.csv"))
	assert.Equal(t, FormatXLS, DetectFormat("old.XLS"))
	assert.Equal(t, FormatCSV, DetectFormat("a"))
}

func TestFilter(t *testing.T) {
	list, err := Load("r.csv", strings.NewReader(
		"AgencyName,City,Email\nAcme,Cape Town,a@x.com\nBeta,Durban,b@beta.co.za\nGamma,Pretoria,g@x.com\n"))
	require.NoError(t, err)

	assert.Len(t, Filter(list, ""), 3)
	assert.Len(t, Filter(list, "durban"), 1)
	assert.Len(t, Filter(list, "X.COM"), 2)
	assert.Empty(t, Filter(list, "nowhere"))
}
