package rpc

import (
	"context"
	"net/http"
	"sync/atomic"
)

// NodeClient talks JSON-RPC to a ledger node.
type NodeClient struct {
	http   *HTTPClient
	nextID atomic.Uint64
}

// NewNodeClient returns a node client over the given endpoints.
func NewNodeClient(opts Opts) *NodeClient {
	return &NodeClient{http: NewHTTPWithOpts(opts)}
}

// Endpoints returns the node endpoints in use.
func (c *NodeClient) Endpoints() []string {
	return c.http.Endpoints()
}

// call performs a JSON-RPC call. When the node embeds an error object the decoded result is still
// returned alongside a *NodeError.
func call[T any](ctx context.Context, c *NodeClient, method string, params ...any) (T, error) {
	var zero T
	if params == nil {
		params = []any{}
	}
	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)}

	var resp rpcResponse[T]
	if err := c.http.doJSON(ctx, http.MethodPost, nodeRPCPath, req, &resp); err != nil {
		return zero, err
	}
	if resp.Error != nil {
		return resp.Result, resp.Error
	}
	return resp.Result, nil
}

// Account returns the account at address, or nil when the node has no such account.
func (c *NodeClient) Account(ctx context.Context, address string) (*Account, error) {
	return call[*Account](ctx, c, methodGetAccount, address)
}

// TowerState returns the mining state of address, or nil when the address never mined.
func (c *NodeClient) TowerState(ctx context.Context, address string) (*TowerState, error) {
	return call[*TowerState](ctx, c, methodGetTowerState, address)
}

// Events returns up to limit events stored under key starting at sequence number start.
// Events and a *NodeError can be returned together.
func (c *NodeClient) Events(ctx context.Context, key string, start, limit uint64) ([]*Event, error) {
	return call[[]*Event](ctx, c, methodGetEvents, key, start, limit)
}

// Transactions returns up to limit transactions starting at startVersion.
func (c *NodeClient) Transactions(ctx context.Context, startVersion, limit uint64, includeEvents bool) ([]*Transaction, error) {
	return call[[]*Transaction](ctx, c, methodGetTransactions, startVersion, limit, includeEvents)
}

// Metadata returns the node's ledger metadata.
func (c *NodeClient) Metadata(ctx context.Context) (*Metadata, error) {
	return call[*Metadata](ctx, c, methodGetMetadata)
}
