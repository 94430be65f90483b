package contacts

import (
	"strings"

	"github.com/blockedby/autorecruit/internal/models"
)

// canonicalOrder lists the columns every contact exposes, even when the
// table lacks them.
var canonicalOrder = []string{
	models.FieldAgencyName,
	models.FieldEmail,
	models.FieldCity,
	models.FieldWebsite,
	models.FieldNotes,
}

// aliasMatchers map a canonical field to a predicate over lowercased headers.
var aliasMatchers = map[string]func(string) bool{
	models.FieldAgencyName: func(h string) bool {
		switch h {
		case "agency", "agencyname", "agency name", "recruiter", "company":
			return true
		}
		return false
	},
	models.FieldEmail: func(h string) bool {
		return strings.Contains(h, "email") || strings.Contains(h, "e-mail")
	},
	models.FieldCity: func(h string) bool {
		return h == "city" || h == "location"
	},
	models.FieldWebsite: func(h string) bool {
		return strings.Contains(h, "web")
	},
}

// resolveAliases returns, for each canonical field missing from the header,
// the first header that can stand in for it.
func resolveAliases(header []string) map[string]string {
	out := make(map[string]string)
	for _, canonical := range canonicalOrder {
		if contains(header, canonical) {
			continue
		}
		match, ok := aliasMatchers[canonical]
		if !ok {
			continue
		}
		for _, h := range header {
			if h != "" && match(strings.ToLower(h)) {
				out[canonical] = h
				break
			}
		}
	}
	return out
}

// applyAliases exposes aliased values under their canonical names and fills
// the remaining canonical fields with "". Original header names stay usable.
func applyAliases(fields map[string]string, aliases map[string]string) {
	for canonical, source := range aliases {
		fields[canonical] = fields[source]
	}
	for _, canonical := range canonicalOrder {
		if _, ok := fields[canonical]; !ok {
			fields[canonical] = ""
		}
	}
}
