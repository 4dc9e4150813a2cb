package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeEngine{}, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeEngine{}, testSecret)

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

// dial starts the server on an in-memory listener and returns a connection.
func dial(t *testing.T, e Engine) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", logging.Nop(), e, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.serve(ctx, lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func TestEngineService_OverJSON(t *testing.T) {
	e := &fakeEngine{
		owner: "client-1",
		result: &models.ValidationResult{
			MissingFields: []models.MissingItem{{Field: "taxpayer.ssn", Description: "SSN is required", Section: "personal"}},
			MissingDocs:   []models.MissingItem{},
			Warnings:      []string{},
		},
	}
	client := NewEngineClient(dial(t, e))

	ctx := metadata.AppendToOutgoingContext(context.Background(),
		common.AccessTokenHeaderName, token(t, "client-1", common.RoleClient))

	res, err := client.Evaluate(ctx, &IntakeRequest{IntakeID: "i-1"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.MissingFields, 1)
	assert.Equal(t, "taxpayer.ssn", res.MissingFields[0].Field)

	_, err = client.EnqueuePacket(ctx, &IntakeRequest{IntakeID: "i-1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.Evaluate(context.Background(), &IntakeRequest{IntakeID: "i-1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t, &fakeEngine{})
	hc := healthpb.NewHealthClient(conn)

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
