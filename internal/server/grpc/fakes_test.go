package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"github.com/taxintake/intakeengine/internal/server/checklist"
	"github.com/taxintake/intakeengine/internal/server/models"
)

const testSecret = "secret"

// fakeEngine records calls and returns canned results.
type fakeEngine struct {
	owner string
	err   error

	result  *models.ValidationResult
	outcome *checklist.Outcome
	packet  *models.PacketRequest
	items   []*models.ChecklistItem

	lastActor *string
	calls     []string
}

func (f *fakeEngine) Authorize(_ context.Context, actor auth.Actor, intakeID string) error {
	if intakeID == "missing" {
		return common.ErrorNotFound
	}
	if !actor.IsStaff() && actor.UserID != f.owner {
		return common.ErrForbidden
	}
	return nil
}

func (f *fakeEngine) Evaluate(_ context.Context, _ string) (*models.ValidationResult, error) {
	f.calls = append(f.calls, "Evaluate")
	return f.result, f.err
}

func (f *fakeEngine) Reconcile(_ context.Context, _ string, actorID *string) (*checklist.Outcome, error) {
	f.calls = append(f.calls, "Reconcile")
	f.lastActor = actorID
	return f.outcome, f.err
}

func (f *fakeEngine) EnqueuePacket(_ context.Context, _ string, actorID string) (string, error) {
	f.calls = append(f.calls, "EnqueuePacket")
	f.lastActor = &actorID
	if f.err != nil {
		return "", f.err
	}
	return "req-1", nil
}

func (f *fakeEngine) GetPacketStatus(_ context.Context, _ string) (*models.PacketRequest, error) {
	f.calls = append(f.calls, "GetPacketStatus")
	return f.packet, f.err
}

func (f *fakeEngine) LatestPacket(_ context.Context, _ string) (*models.PacketRequest, bool, error) {
	f.calls = append(f.calls, "LatestPacket")
	if f.err != nil {
		return nil, false, f.err
	}
	return f.packet, f.packet.Status.IsActive(), nil
}

func (f *fakeEngine) ListChecklist(_ context.Context, _ string, _ bool) ([]*models.ChecklistItem, error) {
	f.calls = append(f.calls, "ListChecklist")
	return f.items, f.err
}

func (f *fakeEngine) AddChecklistItem(_ context.Context, intakeID string, t models.ChecklistItemType, description string, actorID *string) (*models.ChecklistItem, error) {
	f.calls = append(f.calls, "AddChecklistItem")
	f.lastActor = actorID
	if f.err != nil {
		return nil, f.err
	}
	return &models.ChecklistItem{ID: "item-1", IntakeID: intakeID, ItemType: t, Description: description}, nil
}

func (f *fakeEngine) ResolveChecklistItem(_ context.Context, itemID string, actorID *string) (*models.ChecklistItem, error) {
	f.calls = append(f.calls, "ResolveChecklistItem")
	f.lastActor = actorID
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now()
	return &models.ChecklistItem{ID: itemID, ItemType: models.ItemCustom, IsResolved: true, ResolvedAt: &now, ResolvedBy: actorID}, nil
}

func newTestServer(e Engine) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop(), e, testSecret)
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, role, []byte(testSecret), time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}
