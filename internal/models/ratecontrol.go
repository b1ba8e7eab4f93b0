// internal/models/ratecontrol.go
package models

import "time"

// RateControlRecord is the per-calendar-day send counter. One logical record
// exists per batch date; the limiter increments it as sends occur.
type RateControlRecord struct {
	BatchDate         time.Time `json:"batchDate"`
	EmailsSentToday   int       `json:"emailsSentToday"`
	MaxEmailsPerDay   int       `json:"maxEmailsPerDay"`
	MaxEmailsPerBatch int       `json:"maxEmailsPerBatch"`
	BatchDelayMinutes int       `json:"batchDelayMinutes"`
}
