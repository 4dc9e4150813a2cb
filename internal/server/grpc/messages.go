package grpc

import (
	"time"

	"github.com/taxintake/intakeengine/internal/server/models"
)

type IntakeRequest struct {
	IntakeID string `json:"intakeId"`
}

type ReconcileResponse struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Resolved  int `json:"resolved"`
	Unchanged int `json:"unchanged"`
}

type EnqueuePacketResponse struct {
	RequestID string `json:"requestId"`
}

type PacketStatusRequest struct {
	RequestID string `json:"requestId"`
}

type PacketStatus struct {
	ID              string     `json:"id"`
	IntakeID        string     `json:"intakeId"`
	RequestedBy     string     `json:"requestedBy"`
	Status          string     `json:"status"`
	ResultLocation  *string    `json:"resultLocation,omitempty"`
	ArchiveLocation *string    `json:"archiveLocation,omitempty"`
	ErrorMessage    *string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Generating      bool       `json:"generating"`
}

type ListChecklistRequest struct {
	IntakeID        string `json:"intakeId"`
	IncludeResolved bool   `json:"includeResolved"`
}

type ChecklistItem struct {
	ID          string     `json:"id"`
	ItemType    string     `json:"itemType"`
	FieldName   *string    `json:"fieldName,omitempty"`
	Description string     `json:"description"`
	IsResolved  bool       `json:"isResolved"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy  *string    `json:"resolvedBy,omitempty"`
}

type ListChecklistResponse struct {
	Items []ChecklistItem `json:"items"`
}

type AddChecklistItemRequest struct {
	IntakeID    string `json:"intakeId"`
	ItemType    string `json:"itemType"`
	Description string `json:"description"`
}

type ResolveChecklistItemRequest struct {
	ItemID string `json:"itemId"`
}

func toPacketStatus(p *models.PacketRequest) *PacketStatus {
	return &PacketStatus{
		ID:              p.ID,
		IntakeID:        p.IntakeID,
		RequestedBy:     p.RequestedBy,
		Status:          string(p.Status),
		ResultLocation:  p.ResultLocation,
		ArchiveLocation: p.ArchiveLocation,
		ErrorMessage:    p.ErrorMessage,
		CreatedAt:       p.CreatedAt,
		StartedAt:       p.StartedAt,
		CompletedAt:     p.CompletedAt,
		Generating:      p.Status.IsActive(),
	}
}

func toChecklistItem(it *models.ChecklistItem) ChecklistItem {
	return ChecklistItem{
		ID:          it.ID,
		ItemType:    string(it.ItemType),
		FieldName:   it.FieldName,
		Description: it.Description,
		IsResolved:  it.IsResolved,
		ResolvedAt:  it.ResolvedAt,
		ResolvedBy:  it.ResolvedBy,
	}
}

// EvaluateResponse is the completeness report as stored and returned to the
// portal.
type EvaluateResponse = models.ValidationResult
