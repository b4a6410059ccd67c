package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/pkg/codec"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/aretw0/composable/pkg/store"
)

type counterAction interface{ isCounterAction() }

type (
	increment struct{}
	add       struct {
		Amount int `json:"amount"`
	}
)

func (increment) isCounterAction() {}
func (add) isCounterAction()       {}

func newEndpoint(t *testing.T) (*store.Store[int, counterAction], *codec.Endpoint[int, counterAction]) {
	t.Helper()
	feature := reducer.Func[int, counterAction](func(n int, a counterAction) (int, effect.Effect[counterAction]) {
		switch a := a.(type) {
		case increment:
			return n + 1, effect.None[counterAction]()
		case add:
			return n + a.Amount, effect.None[counterAction]()
		}
		return n, effect.None[counterAction]()
	})
	s := store.New(0, feature, store.WithID("counter"))
	t.Cleanup(s.Close)

	r := codec.NewRegistry[counterAction]()
	codec.RegisterValue[counterAction](r, "increment", increment{})
	codec.Register(r, "add", func(p add) counterAction { return p })
	return s, codec.Bind(s, r)
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, domain.ActionResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/actions", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var resp domain.ActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSendAction(t *testing.T) {
	s, ep := newEndpoint(t)
	h := NewHandler(ep)

	w, resp := post(t, h, `{"type":"add","payload":{"amount":5}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Accepted)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, uint64(1), resp.Snapshot.Version)
	assert.Equal(t, 5.0, resp.Snapshot.State)
	assert.Equal(t, 5, s.State())
}

func TestSendAction_Rejections(t *testing.T) {
	s, ep := newEndpoint(t)
	h := NewHandler(ep)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"type":`, http.StatusBadRequest},
		{"unknown", `{"type":"explode"}`, http.StatusNotFound},
		{"bad payload", `{"type":"add","payload":{"amount":"many"}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := post(t, h, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, resp.Accepted)
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Zero(t, s.State())
}

func TestServer_LogsThroughConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	_, ep := newEndpoint(t)
	h := NewHandler(ep, WithLogger(logger))

	w, _ := post(t, h, `{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "SendAction: invalid request body", record["msg"])
	assert.Contains(t, record, "err")
	assert.NotContains(t, record, "error")

	buf.Reset()
	s := &Server{logger: logger}
	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]any{"fn": func() {}})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "response encode failed", record["msg"])
	assert.Contains(t, record, "err")
}

func TestGetStateAndActions(t *testing.T) {
	s, ep := newEndpoint(t)
	s.Send(increment{})
	h := NewHandler(ep)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "counter", snap.StoreID)
	assert.Equal(t, uint64(1), snap.Version)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/actions", nil))
	var descriptors []domain.ActionDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &descriptors))
	require.Len(t, descriptors, 2)
	assert.Equal(t, "add", descriptors[0].Name)
}

func TestHealthInfoAndCORS(t *testing.T) {
	_, ep := newEndpoint(t)
	h := NewHandler(ep, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/info", nil))
	assert.Contains(t, w.Body.String(), `"store_id":"counter"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/actions", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestSubscribeEvents(t *testing.T) {
	s, ep := newEndpoint(t)
	srv := httptest.NewServer(NewHandler(ep))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func(prefix string) string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, prefix) {
				return strings.TrimPrefix(line, prefix)
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}

	assert.Equal(t, "connected", next("data: "))

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(next("data: ")), &snap))
	assert.Equal(t, uint64(0), snap.Version)

	s.Send(add{Amount: 2})
	require.NoError(t, json.Unmarshal([]byte(next("data: ")), &snap))
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, 2.0, snap.State)
}

func TestConnect_Websocket(t *testing.T) {
	s, ep := newEndpoint(t)
	srv := httptest.NewServer(NewHandler(ep))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageSnapshot, msg.Type)
	assert.Equal(t, uint64(0), msg.Snapshot.Version)

	require.NoError(t, conn.WriteJSON(domain.ActionRequest{Type: "increment"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageSnapshot, msg.Type)
	assert.Equal(t, uint64(1), msg.Snapshot.Version)
	assert.Equal(t, 1, s.State())

	require.NoError(t, conn.WriteJSON(domain.ActionRequest{Type: "explode"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, msg.Error, "unknown action")
}
