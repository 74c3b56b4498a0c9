package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestJSONCodec(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	type payload struct {
		ViewerID uint64 `json:"viewer_id"`
	}
	data, err := codec.Marshal(&payload{ViewerID: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"viewer_id":7}`, string(data))

	var got payload
	require.NoError(t, codec.Unmarshal(data, &got))
	assert.Equal(t, uint64(7), got.ViewerID)

	// proto messages use protojson
	data, err = codec.Marshal(&healthpb.HealthCheckRequest{Service: "x"})
	require.NoError(t, err)
	var req healthpb.HealthCheckRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, "x", req.GetService())
}

func TestHealthOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
