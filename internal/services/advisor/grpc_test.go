package advisor

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
)

func startGRPC(t *testing.T, src *fakeSource) *AdvisorClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewService(src))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewAdvisorClient(conn)
}

func TestGRPCCalculate(t *testing.T) {
	client := startGRPC(t, newFakeSource())

	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDKey, "grpc-1")
	var header metadata.MD
	rep, err := client.Calculate(ctx, validInput(), grpc.Header(&header))
	require.NoError(t, err)

	assert.Equal(t, []string{"grpc-1"}, header.Get(requestIDKey))
	assert.Equal(t, "grpc-1", rep.RequestID)
	assert.Equal(t, validInput(), rep.Input)
	assert.Equal(t, 2, rep.Similarity.Similar.Count)
	assert.InDelta(t, 3.5, rep.Similarity.Similar.YieldAverage.Value, 1e-12)
	assert.False(t, rep.Similarity.MoreWater.YieldAverage.Valid)
	assert.Equal(t, "0.12 units", rep.Display.Fertilizer)
}

func TestGRPCOptions(t *testing.T) {
	client := startGRPC(t, newFakeSource())
	opts, err := client.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tomato", "Basil"}, opts.PlantTypes)
}

func TestGRPCErrors(t *testing.T) {
	failing := newFakeSource()
	failing.recordsErr = unavailable(datasource.TableRecords)

	unknown := validInput()
	unknown.PotType = "Tin"
	invalid := validInput()
	invalid.Diameter = -1

	tests := []struct {
		name   string
		src    *fakeSource
		in     Input
		code   codes.Code
		reason string
	}{
		{"invalid", newFakeSource(), invalid, codes.InvalidArgument, CodeInvalidInput},
		{"unknown selection", newFakeSource(), unknown, codes.NotFound, CodeUnknownSelection},
		{"unavailable", failing, validInput(), codes.Unavailable, CodeDataUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startGRPC(t, tt.src)
			_, err := client.Calculate(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.reason, RemoteErrorCode(err))
		})
	}
}

func TestGRPCRejectsUnknownFields(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewService(newFakeSource()))
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	defer conn.Close()

	req, err := structpb.NewStruct(map[string]any{"pot_type": "Clay", "colour": "red"})
	require.NoError(t, err)
	err = conn.Invoke(context.Background(), calculateMethod, req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, RemoteErrorCode(err))
}

func TestGRPCErrorHidesInternalCause(t *testing.T) {
	err := grpcError(assert.AnError)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
	assert.Equal(t, CodeInternal, RemoteErrorCode(err))
}

func TestGRPCHealth(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewService(newFakeSource()))
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: AdvisorServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
