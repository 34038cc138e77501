package pushsend

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientDescriptor(t *testing.T, endpoint string) push.Descriptor {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return push.Descriptor{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func newSender(t *testing.T, srv *httptest.Server) *Sender {
	t.Helper()
	priv, pub, err := GenerateKeys()
	require.NoError(t, err)
	return New(Options{
		VAPIDPrivateKey: priv,
		VAPIDPublicKey:  pub,
		Subject:         "mailto:admin@example.com",
		HTTPClient:      srv.Client(),
	})
}

func TestBroadcast_WebPushStaleEndpoints(t *testing.T) {
	var ttl atomic.Value
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl.Store(r.Header.Get("TTL"))
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/flaky":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	s := newSender(t, srv)
	subs := []push.Descriptor{
		clientDescriptor(t, srv.URL+"/ok"),
		clientDescriptor(t, srv.URL+"/gone"),
		clientDescriptor(t, srv.URL+"/missing"),
		clientDescriptor(t, srv.URL+"/flaky"),
	}

	res, err := s.Broadcast(context.Background(), subs, []byte(`{"title":"t","body":"b","type":"order","id":1}`))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.ElementsMatch(t, []string{srv.URL + "/gone", srv.URL + "/missing"}, res.Stale)
	assert.Equal(t, "300", ttl.Load())
}

func TestBroadcast_WithoutVAPIDKeysSkipsSilently(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := New(Options{HTTPClient: srv.Client()})
	res, err := s.Broadcast(context.Background(), []push.Descriptor{clientDescriptor(t, srv.URL+"/x")}, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Stale)
}

func TestBroadcast_BrokerEndpointWithoutBrokerURL(t *testing.T) {
	s := New(Options{})
	_, err := s.Broadcast(context.Background(), []push.Descriptor{{Endpoint: "amqp://localhost/q"}}, []byte("{}"))
	require.Error(t, err)
}

func TestBroadcast_UnknownSchemeIsKept(t *testing.T) {
	s := New(Options{})
	res, err := s.Broadcast(context.Background(), []push.Descriptor{{Endpoint: "ftp://example/q"}}, []byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, res.Stale)
	assert.Equal(t, 1, res.Skipped)
}

func TestNew_NormalizesSubject(t *testing.T) {
	s := New(Options{Subject: "mailto:admin@example.com"})
	assert.Equal(t, "admin@example.com", s.opts.Subject)
	assert.Equal(t, DefaultTTL, s.opts.TTL)
}

func TestGenerateKeys(t *testing.T) {
	priv, pub, err := GenerateKeys()
	require.NoError(t, err)
	assert.NotEmpty(t, priv)

	raw, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(pub)
	}
	require.NoError(t, err)
	assert.Len(t, raw, 65)
	assert.Equal(t, byte(0x04), raw[0])
}
