package contacts

import (
	"strings"

	"github.com/blockedby/autorecruit/internal/models"
)

// Filter keeps contacts whose agency name, city or email contains query,
// ignoring case. An empty query keeps everything.
func Filter(contacts []models.Contact, query string) []models.Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return contacts
	}

	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		for _, v := range []string{c.AgencyName(), c.City(), c.Email()} {
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
