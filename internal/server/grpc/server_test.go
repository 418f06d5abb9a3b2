package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/rpc"
	"github.com/dmitrijs2005/chirper/internal/server/config"
	"github.com/dmitrijs2005/chirper/internal/server/metrics"
	"github.com/dmitrijs2005/chirper/internal/server/notify"
	"github.com/dmitrijs2005/chirper/internal/server/realtime"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chirper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type testHub struct {
	conn    *grpc.ClientConn
	metrics *metrics.Metrics
}

func startHub(t *testing.T) *testHub {
	t.Helper()

	m := repomanager.NewMemoryRepositoryManager()
	n := notify.NewLocal()
	mt := metrics.New(prometheus.NewRegistry())
	b := realtime.NewBroker(m.Documents(), logging.Discard(), mt)
	unsubscribe, err := n.Subscribe(b.Changed)
	require.NoError(t, err)
	t.Cleanup(unsubscribe)

	ids := services.NewIdentityService(m, &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour})
	docs := services.NewDocumentService(m, n, b, logging.Discard(), mt)
	srv := NewGRPCServer("", logging.Discard(), ids, docs, mt)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return &testHub{conn: conn, metrics: mt}
}

func (h *testHub) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := h.conn.Invoke(ctx, method, req, out)
	return out, err
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

// must unwraps an encoder or call result, failing the test on error.
func must(t *testing.T) func(*structpb.Struct, error) *structpb.Struct {
	return func(s *structpb.Struct, err error) *structpb.Struct {
		t.Helper()
		require.NoError(t, err)
		return s
	}
}

func TestHub_PingAndSignUp(t *testing.T) {
	h := startHub(t)
	ctx := context.Background()

	out, err := h.call(ctx, rpc.MethodPing, &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, "OK", rpc.DecodeStatus(out))

	creds := must(t)(rpc.EncodeCredentials("a@b.com", "secret"))
	out, err = h.call(ctx, rpc.MethodSignUp, creds)
	require.NoError(t, err)
	id := rpc.DecodeIdentity(out)
	assert.NotEmpty(t, id.Token)

	_, err = h.call(ctx, rpc.MethodSignUp, creds)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.ErrorIs(t, rpc.FromStatus(err), common.ErrEmailInUse)

	out, err = h.call(withToken(id.Token), rpc.MethodWhoAmI, &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, id.ID, rpc.DecodeIdentity(out).ID)

	_, err = h.call(ctx, rpc.MethodWhoAmI, &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.call(withToken("bogus"), rpc.MethodPing, &structpb.Struct{})
	assert.ErrorIs(t, rpc.FromStatus(err), common.ErrInvalidToken)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Requests.WithLabelValues(rpc.MethodPing, codes.OK.String())))
}

func TestHub_DocumentsAndListen(t *testing.T) {
	h := startHub(t)

	alice := rpc.DecodeIdentity(must(t)(h.call(context.Background(), rpc.MethodSignUp, must(t)(rpc.EncodeCredentials("a@b.com", "secret")))))
	bob := rpc.DecodeIdentity(must(t)(h.call(context.Background(), rpc.MethodSignUp, must(t)(rpc.EncodeCredentials("b@b.com", "secret")))))

	ctx, cancel := context.WithCancel(withToken(bob.Token))
	defer cancel()
	stream, err := h.conn.NewStream(ctx, rpc.ListenStreamDesc, rpc.MethodListen)
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(must(t)(rpc.EncodeQuery(models.PostsByAuthor("")))))
	require.NoError(t, stream.CloseSend())

	recv := func() []*models.Document {
		msg := new(structpb.Struct)
		require.NoError(t, stream.RecvMsg(msg))
		docs, err := rpc.DecodeDocuments(msg)
		require.NoError(t, err)
		return docs
	}
	assert.Empty(t, recv())

	write := must(t)(rpc.EncodeWrite(rpc.WriteRequest{Collection: common.CollectionPosts,
		Fields: map[string]any{common.FieldAuthorID: alice.ID, common.FieldBody: "hello"}}))
	out, err := h.call(withToken(alice.Token), rpc.MethodCreateDocument, write)
	require.NoError(t, err)
	created, err := rpc.DecodeDocument(out)
	require.NoError(t, err)

	docs := recv()
	require.Len(t, docs, 1)
	assert.Equal(t, created.ID, docs[0].ID)
	assert.Equal(t, "hello", docs[0].String(common.FieldBody))

	edit := must(t)(rpc.EncodeWrite(rpc.WriteRequest{Collection: common.CollectionPosts, ID: created.ID,
		Fields: map[string]any{common.FieldBody: "hijack"}}))
	_, err = h.call(withToken(bob.Token), rpc.MethodUpdateDocument, edit)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	del := must(t)(rpc.EncodeWrite(rpc.WriteRequest{Collection: common.CollectionPosts, ID: created.ID}))
	_, err = h.call(withToken(alice.Token), rpc.MethodDeleteDocument, del)
	require.NoError(t, err)
	assert.Empty(t, recv())

	_, err = h.call(withToken(alice.Token), rpc.MethodDeleteDocument, del)
	assert.ErrorIs(t, rpc.FromStatus(err), common.ErrNotFound)
}

func TestHub_AnonymousListenIsDenied(t *testing.T) {
	h := startHub(t)

	stream, err := h.conn.NewStream(context.Background(), rpc.ListenStreamDesc, rpc.MethodListen)
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(must(t)(rpc.EncodeQuery(models.PostsByAuthor("")))))
	require.NoError(t, stream.CloseSend())

	err = stream.RecvMsg(new(structpb.Struct))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Discard(), nil, nil, nil)
	assert.Error(t, srv.Run(context.Background()))
}
