// internal/models/blacklist.go
package models

import "time"

// BlacklistReason records why a recipient was excluded.
type BlacklistReason string

const (
	ReasonInvalidAddress     BlacklistReason = "invalid_address"
	ReasonPermanentRejection BlacklistReason = "permanent_rejection"
	ReasonRepeatedFailures   BlacklistReason = "repeated_failures"
	ReasonTransientFailure   BlacklistReason = "transient_failure"
)

// BlacklistEntry tracks a recipient excluded from sends. Permanent entries
// are only removable through the administrative unlist operation.
type BlacklistEntry struct {
	MemberID        string          `json:"memberId"`
	Email           string          `json:"email"`
	Reason          BlacklistReason `json:"reason"`
	IsPermanent     bool            `json:"isPermanent"`
	LastAttemptDate time.Time       `json:"lastAttemptDate"`
	AttemptCount    int             `json:"attemptCount"`
}
