package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/pkg/codec"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/aretw0/composable/pkg/store"
)

type step struct {
	By int `json:"by"`
}

func newServer(t *testing.T) (*store.Store[int, step], *Server) {
	t.Helper()
	s := store.New(0, reducer.Func[int, step](func(n int, a step) (int, effect.Effect[step]) {
		return n + a.By, effect.None[step]()
	}), store.WithID("steps"))
	t.Cleanup(s.Close)

	r := codec.NewRegistry[step]()
	codec.Register(r, "step", func(p step) step { return p }, codec.WithDescription("Move the counter"))
	return s, NewServer(codec.Bind(s, r))
}

type rpcResult struct {
	Result struct {
		IsError  bool `json:"isError"`
		Content  []struct {
			Text string `json:"text"`
		} `json:"content"`
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, srv *Server, id int, method string, params any) rpcResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	require.NoError(t, err)
	resp := srv.MCPServer().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out rpcResult
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	require.Nil(t, out.Error, string(data))
	return out
}

func initialize(t *testing.T, srv *Server) {
	call(t, srv, 0, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
}

func tool(t *testing.T, srv *Server, name string, args map[string]any) (string, bool) {
	t.Helper()
	out := call(t, srv, 1, "tools/call", map[string]any{"name": name, "arguments": args})
	require.NotEmpty(t, out.Result.Content)
	return out.Result.Content[0].Text, out.Result.IsError
}

func TestSendAction(t *testing.T) {
	s, srv := newServer(t)
	initialize(t, srv)

	tests := []struct {
		name    string
		payload any
	}{
		{"object payload", map[string]any{"by": 2}},
		{"string payload", `{"by": 2}`},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := tool(t, srv, "send_action", map[string]any{"type": "step", "payload": tt.payload})
			require.False(t, isErr, text)

			var resp domain.ActionResponse
			require.NoError(t, json.Unmarshal([]byte(text), &resp))
			assert.True(t, resp.Accepted)
			assert.Equal(t, uint64(i+1), resp.Snapshot.Version)
		})
	}
	assert.Equal(t, 4, s.State())
}

func TestSendAction_Errors(t *testing.T) {
	s, srv := newServer(t)
	initialize(t, srv)

	tests := []struct {
		args map[string]any
		want string
	}{
		{map[string]any{}, "type is required"},
		{map[string]any{"type": "jump"}, "unknown action"},
		{map[string]any{"type": "step", "payload": "{"}, "not a JSON object"},
		{map[string]any{"type": "step", "payload": map[string]any{"by": "far"}}, "decode step payload"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			text, isErr := tool(t, srv, "send_action", tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}
	assert.Zero(t, s.State())
}

func TestGetStateAndListActions(t *testing.T) {
	s, srv := newServer(t)
	initialize(t, srv)
	s.Send(step{By: 3})

	text, _ := tool(t, srv, "get_state", nil)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text), &snap))
	assert.Equal(t, "steps", snap.StoreID)
	assert.Equal(t, 3.0, snap.State)

	text, _ = tool(t, srv, "list_actions", nil)
	var descriptors []domain.ActionDescriptor
	require.NoError(t, json.Unmarshal([]byte(text), &descriptors))
	require.Len(t, descriptors, 1)
	assert.Equal(t, "Move the counter", descriptors[0].Description)
}

func TestStateResource(t *testing.T) {
	s, srv := newServer(t)
	initialize(t, srv)
	s.Send(step{By: 1})

	out := call(t, srv, 2, "resources/read", map[string]any{"uri": StateURI})
	require.Len(t, out.Result.Contents, 1)
	assert.Equal(t, StateURI, out.Result.Contents[0].URI)
	assert.Contains(t, out.Result.Contents[0].Text, `"version":1`)
}
