package dispatcher

import (
	"strings"

	"github.com/blockedby/autorecruit/internal/models"
)

// FailedContacts returns the contacts whose most recent log entry is FAILED,
// in contact order. Entries are matched by row, or by email when the entry
// carries no row (logs written by older versions).
func FailedContacts(contacts []models.Contact, entries []models.LogEntry) []models.Contact {
	byRow := make(map[int]models.DeliveryStatus)
	byEmail := make(map[string]models.DeliveryStatus)
	for _, e := range entries {
		if e.Row > 0 {
			byRow[e.Row] = e.Status
			continue
		}
		if email := normalizeEmail(e.Email); email != "" {
			byEmail[email] = e.Status
		}
	}

	var failed []models.Contact
	for _, c := range contacts {
		status, ok := byRow[c.Row]
		if !ok {
			status, ok = byEmail[normalizeEmail(c.Email())]
		}
		if ok && status == models.DeliveryStatusFailed {
			failed = append(failed, c)
		}
	}
	return failed
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
