package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockedby/autorecruit/internal/models"
)

func TestFailedContacts(t *testing.T) {
	contacts := []models.Contact{
		mkContact(1, "A", "X", "a@x.com"),
		mkContact(2, "B", "Y", "b@x.com"),
		mkContact(3, "C", "Z", "c@x.com"),
		mkContact(4, "D", "W", "d@x.com"),
	}
	entries := []models.LogEntry{
		{Row: 1, Status: models.DeliveryStatusSent},
		{Row: 2, Status: models.DeliveryStatusFailed},
		{Row: 3, Status: models.DeliveryStatusFailed},
		// a later retry of row 3 succeeded
		{Row: 3, Status: models.DeliveryStatusSent},
	}

	got := FailedContacts(contacts, entries)
	assert.Equal(t, []models.Contact{contacts[1]}, got)
}

func TestFailedContacts_MatchesByEmailWithoutRow(t *testing.T) {
	contacts := []models.Contact{
		mkContact(1, "A", "X", "a@x.com"),
		mkContact(2, "B", "Y", "B@X.com"),
	}
	entries := []models.LogEntry{
		{Email: "a@x.com", Status: models.DeliveryStatusSent},
		{Email: " b@x.com", Status: models.DeliveryStatusFailed},
	}

	got := FailedContacts(contacts, entries)
	assert.Equal(t, []models.Contact{contacts[1]}, got)
}

func TestFailedContacts_Empty(t *testing.T) {
	assert.Empty(t, FailedContacts(nil, nil))
	assert.Empty(t, FailedContacts([]models.Contact{mkContact(1, "A", "X", "a@x.com")}, nil))
}
