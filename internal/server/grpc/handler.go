package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"github.com/taxintake/intakeengine/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps engine errors onto gRPC codes. Internal details are logged,
// never returned.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrAutoItemOwned),
		errors.Is(err, common.ErrInvalidItemType),
		errors.Is(err, common.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "method", method, "error", err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// authorize resolves the actor placed by the interceptor and checks access to
// the intake.
func (s *GRPCServer) authorize(ctx context.Context, method, intakeID string) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return auth.Actor{}, status.Error(codes.Unauthenticated, "missing token")
	}
	if strings.TrimSpace(intakeID) == "" {
		return auth.Actor{}, status.Error(codes.InvalidArgument, "intake id is required")
	}
	if err := s.engine.Authorize(ctx, actor, intakeID); err != nil {
		return auth.Actor{}, s.toStatus(ctx, method, err)
	}
	return actor, nil
}

func (s *GRPCServer) Evaluate(ctx context.Context, req *IntakeRequest) (*EvaluateResponse, error) {
	if _, err := s.authorize(ctx, "Evaluate", req.IntakeID); err != nil {
		return nil, err
	}

	result, err := s.engine.Evaluate(ctx, req.IntakeID)
	if err != nil {
		return nil, s.toStatus(ctx, "Evaluate", err)
	}
	return result, nil
}

func (s *GRPCServer) Reconcile(ctx context.Context, req *IntakeRequest) (*ReconcileResponse, error) {
	actor, err := s.authorize(ctx, "Reconcile", req.IntakeID)
	if err != nil {
		return nil, err
	}

	out, err := s.engine.Reconcile(ctx, req.IntakeID, &actor.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, "Reconcile", err)
	}

	s.logger.Info(ctx, "checklist reconciled", "intake_id", req.IntakeID, "writes", out.Writes())
	return &ReconcileResponse{
		Created:   out.Created,
		Updated:   out.Updated,
		Resolved:  out.Resolved,
		Unchanged: out.Unchanged,
	}, nil
}

func (s *GRPCServer) EnqueuePacket(ctx context.Context, req *IntakeRequest) (*EnqueuePacketResponse, error) {
	actor, err := s.authorize(ctx, "EnqueuePacket", req.IntakeID)
	if err != nil {
		return nil, err
	}

	id, err := s.engine.EnqueuePacket(ctx, req.IntakeID, actor.UserID)
	if err != nil {
		if id != "" {
			// The request exists and is already marked failed.
			s.logger.Warn(ctx, "packet dispatch failed", "request_id", id, "error", err.Error())
			return nil, status.Error(codes.Unavailable, "packet queue unavailable")
		}
		return nil, s.toStatus(ctx, "EnqueuePacket", err)
	}
	return &EnqueuePacketResponse{RequestID: id}, nil
}

func (s *GRPCServer) GetPacketStatus(ctx context.Context, req *PacketStatusRequest) (*PacketStatus, error) {
	if strings.TrimSpace(req.RequestID) == "" {
		return nil, status.Error(codes.InvalidArgument, "request id is required")
	}

	p, err := s.engine.GetPacketStatus(ctx, req.RequestID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetPacketStatus", err)
	}
	return toPacketStatus(p), nil
}

func (s *GRPCServer) LatestPacket(ctx context.Context, req *IntakeRequest) (*PacketStatus, error) {
	if _, err := s.authorize(ctx, "LatestPacket", req.IntakeID); err != nil {
		return nil, err
	}

	p, _, err := s.engine.LatestPacket(ctx, req.IntakeID)
	if err != nil {
		return nil, s.toStatus(ctx, "LatestPacket", err)
	}
	return toPacketStatus(p), nil
}

func (s *GRPCServer) ListChecklist(ctx context.Context, req *ListChecklistRequest) (*ListChecklistResponse, error) {
	if _, err := s.authorize(ctx, "ListChecklist", req.IntakeID); err != nil {
		return nil, err
	}

	items, err := s.engine.ListChecklist(ctx, req.IntakeID, req.IncludeResolved)
	if err != nil {
		return nil, s.toStatus(ctx, "ListChecklist", err)
	}

	resp := &ListChecklistResponse{Items: make([]ChecklistItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toChecklistItem(it))
	}
	return resp, nil
}

func (s *GRPCServer) AddChecklistItem(ctx context.Context, req *AddChecklistItemRequest) (*ChecklistItem, error) {
	actor, err := s.authorize(ctx, "AddChecklistItem", req.IntakeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, status.Error(codes.InvalidArgument, "description is required")
	}

	it, err := s.engine.AddChecklistItem(ctx, req.IntakeID, models.ChecklistItemType(req.ItemType), req.Description, &actor.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, "AddChecklistItem", err)
	}
	out := toChecklistItem(it)
	return &out, nil
}

func (s *GRPCServer) ResolveChecklistItem(ctx context.Context, req *ResolveChecklistItemRequest) (*ChecklistItem, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if strings.TrimSpace(req.ItemID) == "" {
		return nil, status.Error(codes.InvalidArgument, "item id is required")
	}

	it, err := s.engine.ResolveChecklistItem(ctx, req.ItemID, &actor.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, "ResolveChecklistItem", err)
	}
	out := toChecklistItem(it)
	return &out, nil
}
