package models

import "time"

// AuditResult is the outcome recorded with an audit entry.
type AuditResult string

const (
	AuditSuccess AuditResult = "success"
	AuditFailure AuditResult = "failure"
)

// AuditRecord is a persisted audit log row.
type AuditRecord struct {
	ID         string
	ActorID    *string
	Action     string
	Resource   string
	ResourceID string
	Result     AuditResult
	Details    map[string]any
	CreatedAt  time.Time
}
