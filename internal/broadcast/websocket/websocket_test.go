package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/pkg/streaming"
)

type received struct {
	mu   sync.Mutex
	envs []streaming.Envelope
}

func (r *received) add(_ context.Context, env streaming.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
}

func (r *received) all() []streaming.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]streaming.Envelope, len(r.envs))
	copy(cp, r.envs)
	return cp
}

func relayServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Router())
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialClient(t *testing.T, base, topic string) (*Client, *received) {
	t.Helper()
	c := New(Config{URL: base, Topic: topic, ReconnectMin: 10 * time.Millisecond}, nil)
	r := &received{}
	c.Subscribe(r.add)
	require.NoError(t, c.Dial())
	t.Cleanup(func() { _ = c.Close() })
	return c, r
}

func alert(t *testing.T, user string) streaming.Envelope {
	t.Helper()
	env, err := streaming.NewEnvelope(streaming.ActionOverwatchAlert, streaming.OverwatchAlertPayload{
		ReactorIDs: []string{"r1"},
		TargetID:   "m",
		UserID:     user,
	})
	require.NoError(t, err)
	return env
}

func TestTopicURL(t *testing.T) {
	assert.Equal(t, "ws://host/ws/module.x", TopicURL("ws://host/ws/", "module.x"))
	assert.Equal(t, "ws://host/ws/a%2Fb", TopicURL("ws://host/ws", "a/b"))
}

func TestRelay_FansOutToOtherClientsOnTopic(t *testing.T) {
	hub, base := relayServer(t)
	a, fromA := dialClient(t, base, "scene")
	_, fromB := dialClient(t, base, "scene")
	_, fromOther := dialClient(t, base, "elsewhere")

	require.Eventually(t, func() bool { return hub.Peers("scene") == 2 && hub.Peers("elsewhere") == 1 },
		time.Second, 10*time.Millisecond)

	env := alert(t, "bob")
	require.NoError(t, a.Publish(context.Background(), env))

	require.Eventually(t, func() bool { return len(fromB.all()) == 1 }, time.Second, 10*time.Millisecond)
	got := fromB.all()[0]
	assert.Equal(t, env.ID, got.ID)
	p, err := streaming.DecodeOverwatchAlert(got)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.UserID)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fromA.all(), "sender must not receive its own message")
	assert.Empty(t, fromOther.all(), "other topics are isolated")
}

func TestRelay_DropsInvalidMessages(t *testing.T) {
	hub, base := relayServer(t)
	_, fromB := dialClient(t, base, "scene")

	raw, _, err := ws.DefaultDialer.Dial(base+"/scene", nil)
	require.NoError(t, err)
	defer raw.Close()

	require.Eventually(t, func() bool { return hub.Peers("scene") == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, raw.WriteMessage(ws.TextMessage, []byte(`{"action":"overwatchAlert"}`)))
	valid, err := json.Marshal(alert(t, "carol"))
	require.NoError(t, err)
	require.NoError(t, raw.WriteMessage(ws.TextMessage, valid))

	require.Eventually(t, func() bool { return len(fromB.all()) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, fromB.all(), 1)
}

func TestClient_DropsInvalidInbound(t *testing.T) {
	valid, err := json.Marshal(alert(t, "dave"))
	require.NoError(t, err)

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(ws.TextMessage, []byte(`not json`))
		_ = c.WriteMessage(ws.TextMessage, valid)
		_, _, _ = c.ReadMessage()
	}))
	defer srv.Close()

	_, got := dialClient(t, "ws"+strings.TrimPrefix(srv.URL, "http"), "t")

	require.Eventually(t, func() bool { return len(got.all()) == 1 }, time.Second, 10*time.Millisecond)
	p, err := streaming.DecodeOverwatchAlert(got.all()[0])
	require.NoError(t, err)
	assert.Equal(t, "dave", p.UserID)
}

func TestClient_PublishAfterClose(t *testing.T) {
	_, base := relayServer(t)
	c, _ := dialClient(t, base, "scene")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Publish(context.Background(), alert(t, "x")), ErrClosed)
}

func TestClient_DialFailure(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1/ws", Topic: "t"}, nil)
	assert.Error(t, c.Dial())
}
