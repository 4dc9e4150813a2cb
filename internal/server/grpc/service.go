package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "intake.engine.v1.Engine"

// EngineServer is the server API of the intake.engine.v1.Engine service.
type EngineServer interface {
	Evaluate(context.Context, *IntakeRequest) (*EvaluateResponse, error)
	Reconcile(context.Context, *IntakeRequest) (*ReconcileResponse, error)
	EnqueuePacket(context.Context, *IntakeRequest) (*EnqueuePacketResponse, error)
	GetPacketStatus(context.Context, *PacketStatusRequest) (*PacketStatus, error)
	LatestPacket(context.Context, *IntakeRequest) (*PacketStatus, error)
	ListChecklist(context.Context, *ListChecklistRequest) (*ListChecklistResponse, error)
	AddChecklistItem(context.Context, *AddChecklistItemRequest) (*ChecklistItem, error)
	ResolveChecklistItem(context.Context, *ResolveChecklistItemRequest) (*ChecklistItem, error)
}

// unary builds a method handler for a request type Req.
func unary[Req any, Resp any](name string, call func(EngineServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EngineServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EngineServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes intake.engine.v1.Engine for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Evaluate", EngineServer.Evaluate),
		unary("Reconcile", EngineServer.Reconcile),
		unary("EnqueuePacket", EngineServer.EnqueuePacket),
		unary("GetPacketStatus", EngineServer.GetPacketStatus),
		unary("LatestPacket", EngineServer.LatestPacket),
		unary("ListChecklist", EngineServer.ListChecklist),
		unary("AddChecklistItem", EngineServer.AddChecklistItem),
		unary("ResolveChecklistItem", EngineServer.ResolveChecklistItem),
	},
	Streams: []grpc.StreamDesc{},
}

// EngineClient calls the service over a connection using the JSON codec.
type EngineClient struct {
	cc grpc.ClientConnInterface
}

func NewEngineClient(cc grpc.ClientConnInterface) *EngineClient {
	return &EngineClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EngineClient) Evaluate(ctx context.Context, in *IntakeRequest, opts ...grpc.CallOption) (*EvaluateResponse, error) {
	return invoke[EvaluateResponse](ctx, c.cc, "Evaluate", in, opts...)
}

func (c *EngineClient) Reconcile(ctx context.Context, in *IntakeRequest, opts ...grpc.CallOption) (*ReconcileResponse, error) {
	return invoke[ReconcileResponse](ctx, c.cc, "Reconcile", in, opts...)
}

func (c *EngineClient) EnqueuePacket(ctx context.Context, in *IntakeRequest, opts ...grpc.CallOption) (*EnqueuePacketResponse, error) {
	return invoke[EnqueuePacketResponse](ctx, c.cc, "EnqueuePacket", in, opts...)
}

func (c *EngineClient) GetPacketStatus(ctx context.Context, in *PacketStatusRequest, opts ...grpc.CallOption) (*PacketStatus, error) {
	return invoke[PacketStatus](ctx, c.cc, "GetPacketStatus", in, opts...)
}

func (c *EngineClient) LatestPacket(ctx context.Context, in *IntakeRequest, opts ...grpc.CallOption) (*PacketStatus, error) {
	return invoke[PacketStatus](ctx, c.cc, "LatestPacket", in, opts...)
}

func (c *EngineClient) ListChecklist(ctx context.Context, in *ListChecklistRequest, opts ...grpc.CallOption) (*ListChecklistResponse, error) {
	return invoke[ListChecklistResponse](ctx, c.cc, "ListChecklist", in, opts...)
}

func (c *EngineClient) AddChecklistItem(ctx context.Context, in *AddChecklistItemRequest, opts ...grpc.CallOption) (*ChecklistItem, error) {
	return invoke[ChecklistItem](ctx, c.cc, "AddChecklistItem", in, opts...)
}

func (c *EngineClient) ResolveChecklistItem(ctx context.Context, in *ResolveChecklistItemRequest, opts ...grpc.CallOption) (*ChecklistItem, error) {
	return invoke[ChecklistItem](ctx, c.cc, "ResolveChecklistItem", in, opts...)
}
