package models

import "time"

// PacketStatus is the state of a packet generation request.
type PacketStatus string

const (
	PacketPending    PacketStatus = "pending"
	PacketProcessing PacketStatus = "processing"
	PacketCompleted  PacketStatus = "completed"
	PacketFailed     PacketStatus = "failed"
)

// IsTerminal returns true if no further transitions are allowed.
func (s PacketStatus) IsTerminal() bool {
	return s == PacketCompleted || s == PacketFailed
}

// IsActive reports whether a packet is still being generated.
func (s PacketStatus) IsActive() bool {
	return s == PacketPending || s == PacketProcessing
}

// CanTransitionTo checks if the status can move to target.
func (s PacketStatus) CanTransitionTo(target PacketStatus) bool {
	switch s {
	case PacketPending:
		return target == PacketProcessing || target == PacketFailed
	case PacketProcessing:
		return target == PacketCompleted || target == PacketFailed
	case PacketCompleted, PacketFailed:
		return false
	}
	return false
}

var packetStatuses = []PacketStatus{PacketPending, PacketProcessing, PacketCompleted, PacketFailed}

// TransitionSources lists, in lifecycle order, the statuses allowed to move
// to target.
func TransitionSources(target PacketStatus) []PacketStatus {
	var out []PacketStatus
	for _, s := range packetStatuses {
		if s.CanTransitionTo(target) {
			out = append(out, s)
		}
	}
	return out
}

// PacketRequest is one packet generation attempt. Regenerating creates a
// new request; old ones are history.
type PacketRequest struct {
	ID          string
	IntakeID    string
	RequestedBy string
	Status      PacketStatus
	// ResultLocation is the storage key of the rendered summary.
	ResultLocation *string
	// ArchiveLocation is the storage key of the zip archive.
	ArchiveLocation *string
	ErrorMessage    *string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
