package rpc

import (
	"context"
	"net/http"
)

// PermissionTreeClient queries the permission-tree indexing service.
type PermissionTreeClient struct {
	http *HTTPClient
}

// NewPermissionTreeClient returns a permission-tree client over the given endpoints.
func NewPermissionTreeClient(opts Opts) *PermissionTreeClient {
	return &PermissionTreeClient{http: NewHTTPWithOpts(opts)}
}

// Endpoints returns the permission-tree endpoints in use.
func (c *PermissionTreeClient) Endpoints() []string {
	return c.http.Endpoints()
}

// ValidatorPermissionTree returns the validator onboarding record of address.
// ErrNotFound (via errors.Is) means the index has no entry.
func (c *PermissionTreeClient) ValidatorPermissionTree(ctx context.Context, address string) (*PermissionTreeNode, error) {
	return c.node(ctx, addressPath(validatorTreePath, address))
}

// MinerPermissionTree returns the miner onboarding record of address.
func (c *PermissionTreeClient) MinerPermissionTree(ctx context.Context, address string) (*PermissionTreeNode, error) {
	return c.node(ctx, addressPath(minerTreePath, address))
}

func (c *PermissionTreeClient) node(ctx context.Context, path string) (*PermissionTreeNode, error) {
	var out *PermissionTreeNode
	if err := c.http.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		// "null" body carries no record
		return nil, ErrNotFound
	}
	return out, nil
}

// MinerProofHistory returns the per-epoch proof counts of address as the service orders them.
func (c *PermissionTreeClient) MinerProofHistory(ctx context.Context, address string) ([]ProofHistoryEntry, error) {
	var out []ProofHistoryEntry
	if err := c.http.doJSON(ctx, http.MethodGet, addressPath(proofHistoryPath, address), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
