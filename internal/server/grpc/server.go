// Package grpc exposes the intake engine as the intake.engine.v1.Engine gRPC
// service. Messages travel as JSON through a registered codec.
package grpc

import (
	"context"
	"net"

	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"github.com/taxintake/intakeengine/internal/server/checklist"
	"github.com/taxintake/intakeengine/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Engine is the service layer the handlers delegate to.
type Engine interface {
	Authorize(ctx context.Context, actor auth.Actor, intakeID string) error
	Evaluate(ctx context.Context, intakeID string) (*models.ValidationResult, error)
	Reconcile(ctx context.Context, intakeID string, actorID *string) (*checklist.Outcome, error)
	EnqueuePacket(ctx context.Context, intakeID, actorID string) (string, error)
	GetPacketStatus(ctx context.Context, requestID string) (*models.PacketRequest, error)
	LatestPacket(ctx context.Context, intakeID string) (*models.PacketRequest, bool, error)
	ListChecklist(ctx context.Context, intakeID string, includeResolved bool) ([]*models.ChecklistItem, error)
	AddChecklistItem(ctx context.Context, intakeID string, t models.ChecklistItemType, description string, actorID *string) (*models.ChecklistItem, error)
	ResolveChecklistItem(ctx context.Context, itemID string, actorID *string) (*models.ChecklistItem, error)
}

type GRPCServer struct {
	address   string
	engine    Engine
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, e Engine, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		engine:    e,
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
	}
}

// newServer builds the grpc.Server with the engine and health services
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv.RegisterService(&ServiceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
