// Package models defines server-side data models persisted in the database.
package models

import "time"

// IntakeStatus is the lifecycle status of an intake.
type IntakeStatus string

const (
	IntakeDraft          IntakeStatus = "draft"
	IntakeSubmitted      IntakeStatus = "submitted"
	IntakeInReview       IntakeStatus = "in_review"
	IntakeReadyForFiling IntakeStatus = "ready_for_filing"
	IntakeFiled          IntakeStatus = "filed"
	IntakeAccepted       IntakeStatus = "accepted"
	IntakeRejected       IntakeStatus = "rejected"
)

// Intake is one taxpayer's filing for one tax year.
type Intake struct {
	ID          string
	UserID      string
	TaxYear     int
	Status      IntakeStatus
	SubmittedAt *time.Time
	// AssignedTo is the staff member working the intake, if any.
	AssignedTo *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsEditable reports whether client-owned data may still change.
func (i *Intake) IsEditable() bool {
	return i.Status == IntakeDraft
}
