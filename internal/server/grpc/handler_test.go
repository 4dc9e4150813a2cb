package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"github.com/taxintake/intakeengine/internal/server/checklist"
	"github.com/taxintake/intakeengine/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func asActor(userID, role string) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: userID, Role: role})
}

func TestEvaluate_OwnerAndStaff(t *testing.T) {
	e := &fakeEngine{owner: "client-1", result: &models.ValidationResult{Valid: true}}
	s := newTestServer(e)

	res, err := s.Evaluate(asActor("client-1", common.RoleClient), &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = s.Evaluate(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)

	_, err = s.Evaluate(asActor("client-2", common.RoleClient), &IntakeRequest{IntakeID: "i-1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, []string{"Evaluate", "Evaluate"}, e.calls, "forbidden calls never reach the engine")
}

func TestEvaluate_Arguments(t *testing.T) {
	s := newTestServer(&fakeEngine{})

	_, err := s.Evaluate(context.Background(), &IntakeRequest{IntakeID: "i-1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.Evaluate(asActor("staff-1", common.RoleStaff), &IntakeRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.Evaluate(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrForbidden, codes.PermissionDenied},
		{common.ErrAutoItemOwned, codes.FailedPrecondition},
		{common.ErrInvalidItemType, codes.FailedPrecondition},
		{common.ErrInvalidTransition, codes.FailedPrecondition},
		{errors.New("connection reset"), codes.Internal},
	}
	s := newTestServer(&fakeEngine{})
	for _, tt := range tests {
		got := s.toStatus(context.Background(), "Test", tt.err)
		assert.Equal(t, tt.want, status.Code(got), tt.err.Error())
	}

	internal := s.toStatus(context.Background(), "Test", errors.New("pq: password leaked"))
	assert.Equal(t, "internal error", status.Convert(internal).Message())
}

func TestReconcile_PassesActor(t *testing.T) {
	e := &fakeEngine{outcome: &checklist.Outcome{Created: 3, Unchanged: 2}}
	s := newTestServer(e)

	res, err := s.Reconcile(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	assert.Equal(t, &ReconcileResponse{Created: 3, Unchanged: 2}, res)
	require.NotNil(t, e.lastActor)
	assert.Equal(t, "staff-1", *e.lastActor)
}

func TestEnqueuePacket(t *testing.T) {
	e := &fakeEngine{}
	s := newTestServer(e)

	res, err := s.EnqueuePacket(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", res.RequestID)

	e.err = errors.New("queue full")
	_, err = s.EnqueuePacket(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "i-1"})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestPacketStatus(t *testing.T) {
	loc := "exports/i-1/req-1/summary.pdf"
	e := &fakeEngine{packet: &models.PacketRequest{
		ID: "req-1", IntakeID: "i-1", Status: models.PacketCompleted, ResultLocation: &loc,
	}}
	s := newTestServer(e)

	got, err := s.GetPacketStatus(asActor("client-9", common.RoleClient), &PacketStatusRequest{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, &loc, got.ResultLocation)
	assert.False(t, got.Generating)

	_, err = s.GetPacketStatus(asActor("client-9", common.RoleClient), &PacketStatusRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	e.packet.Status = models.PacketProcessing
	latest, err := s.LatestPacket(asActor("staff-1", common.RoleStaff), &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	assert.True(t, latest.Generating)
}

func TestChecklistHandlers(t *testing.T) {
	field := "taxpayer.ssn"
	e := &fakeEngine{items: []*models.ChecklistItem{
		{ID: "a", ItemType: models.ItemMissingField, FieldName: &field, Description: "SSN is required"},
	}}
	s := newTestServer(e)
	staff := asActor("staff-1", common.RoleStaff)

	list, err := s.ListChecklist(staff, &ListChecklistRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "missing_field", list.Items[0].ItemType)
	assert.Equal(t, &field, list.Items[0].FieldName)

	_, err = s.AddChecklistItem(staff, &AddChecklistItemRequest{IntakeID: "i-1", ItemType: "custom", Description: " "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	added, err := s.AddChecklistItem(staff, &AddChecklistItemRequest{IntakeID: "i-1", ItemType: "custom", Description: "Bring last year's return"})
	require.NoError(t, err)
	assert.Equal(t, "custom", added.ItemType)

	resolved, err := s.ResolveChecklistItem(staff, &ResolveChecklistItemRequest{ItemID: "item-1"})
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "staff-1", *resolved.ResolvedBy)

	e.err = common.ErrAutoItemOwned
	_, err = s.ResolveChecklistItem(staff, &ResolveChecklistItemRequest{ItemID: "a"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
