package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedCall struct {
	Method string
	Params []any
}

// nodeServer answers every JSON-RPC call with reply(method) and returns a snapshot func of the calls seen.
func nodeServer(t *testing.T, reply func(method string) string) (*NodeClient, func() []capturedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []capturedCall
	)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		calls = append(calls, capturedCall{Method: req.Method, Params: req.Params})
		_, _ = w.Write([]byte(reply(req.Method)))
	})
	snapshot := func() []capturedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedCall(nil), calls...)
	}
	return NewNodeClient(Opts{Endpoints: []string{srv.URL}}), snapshot
}

func TestNodeClient_Account(t *testing.T) {
	c, seen := nodeServer(t, func(string) string {
		return `{"jsonrpc":"2.0","id":1,"result":{"address":"ABCD","balances":[{"amount":2500000,"currency":"GAS"}]}}`
	})

	acc, err := c.Account(context.Background(), "abcd")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "ABCD", acc.Address)
	require.Len(t, acc.Balances, 1)
	assert.Equal(t, uint64(2500000), acc.Balances[0].Amount)

	require.Len(t, seen(), 1)
	assert.Equal(t, "get_account", seen()[0].Method)
	assert.Equal(t, []any{"abcd"}, seen()[0].Params)
}

func TestNodeClient_NullResult(t *testing.T) {
	c, seen := nodeServer(t, func(string) string {
		return `{"jsonrpc":"2.0","id":1,"result":null}`
	})

	ts, err := c.TowerState(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Nil(t, ts)
	assert.Equal(t, "get_tower_state_view", seen()[0].Method)
}

func TestNodeClient_EventsWithEmbeddedError(t *testing.T) {
	c, seen := nodeServer(t, func(string) string {
		return `{"jsonrpc":"2.0","id":1,
			"result":[{"key":"k","sequence_number":0,"transaction_version":42,"data":{"type":"receivedpayment","sender":"aa","receiver":"bb"}}],
			"error":{"code":-32000,"message":"partial"}}`
	})

	events, err := c.Events(context.Background(), "k", 0, 1000)
	require.Error(t, err)
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, int64(-32000), nodeErr.Code)
	assert.Equal(t, "partial (-32000)", nodeErr.Error())

	require.Len(t, events, 1)
	assert.Equal(t, uint64(42), events[0].TransactionVersion)
	assert.Equal(t, "bb", events[0].Data.Receiver)

	assert.Equal(t, "get_events", seen()[0].Method)
	assert.Equal(t, []any{"k", float64(0), float64(1000)}, seen()[0].Params)
}

func TestNodeClient_Transactions(t *testing.T) {
	c, seen := nodeServer(t, func(string) string {
		return `{"jsonrpc":"2.0","id":1,"result":[{"version":7,
			"transaction":{"type":"user","sender":"s1","script":{"type":"script_function","function_name":"create_acc_val"}},
			"events":[{"key":"k","transaction_version":7,"data":{"type":"receivedpayment","receiver":"r1"}}]}]}`
	})

	txs, err := c.Transactions(context.Background(), 7, 1, true)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "create_acc_val", txs[0].Transaction.Script.FunctionName)
	assert.Equal(t, "s1", txs[0].Transaction.Sender)
	require.Len(t, txs[0].Events, 1)
	assert.Equal(t, "r1", txs[0].Events[0].Data.Receiver)
	assert.Equal(t, []any{float64(7), float64(1), true}, seen()[0].Params)
}

func TestNodeClient_Metadata(t *testing.T) {
	c, seen := nodeServer(t, func(string) string {
		return `{"jsonrpc":"2.0","id":1,"result":{"version":100,"timestamp":5,"chain_id":1}}`
	})
	md, err := c.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), md.Version)
	assert.Equal(t, []any{}, seen()[0].Params)
}
