package models

import (
	"time"
)

// DeliveryStatus is the terminal outcome of one send attempt.
type DeliveryStatus string

// DeliveryStatus constants define the logged outcomes.
const (
	DeliveryStatusSent   DeliveryStatus = "SENT"
	DeliveryStatusFailed DeliveryStatus = "FAILED"
)

// Valid reports whether s is a known logged status.
func (s DeliveryStatus) Valid() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusFailed
}

// LogEntry records the outcome of one attempted send.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Row        int            `json:"row"`
	AgencyName string         `json:"agency_name"`
	Email      string         `json:"email"`
	Status     DeliveryStatus `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	MessageID  string         `json:"message_id,omitempty"`
	Subject    string         `json:"subject,omitempty"`
	Preview    string         `json:"preview,omitempty"`
}

// Failed reports whether the attempt failed.
func (e LogEntry) Failed() bool {
	return e.Status == DeliveryStatusFailed
}
