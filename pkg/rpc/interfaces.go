package rpc

import (
	"context"
)

// Node captures the ledger-node calls used when classifying an address.
type Node interface {
	Account(ctx context.Context, address string) (*Account, error)
	TowerState(ctx context.Context, address string) (*TowerState, error)
	Events(ctx context.Context, key string, start, limit uint64) ([]*Event, error)
	Transactions(ctx context.Context, startVersion, limit uint64, includeEvents bool) ([]*Transaction, error)
}

// PermissionTree captures the permission-tree service. Missing records are reported as ErrNotFound.
type PermissionTree interface {
	ValidatorPermissionTree(ctx context.Context, address string) (*PermissionTreeNode, error)
	MinerPermissionTree(ctx context.Context, address string) (*PermissionTreeNode, error)
	MinerProofHistory(ctx context.Context, address string) ([]ProofHistoryEntry, error)
}

// VitalsSource captures the vitals snapshot service.
type VitalsSource interface {
	Vitals(ctx context.Context) (*Vitals, error)
}

// Clients bundles the three upstream services.
type Clients struct {
	Node           *NodeClient
	PermissionTree *PermissionTreeClient
	Vitals         *VitalsClient
}

// NewClients builds clients for the three services sharing transport settings.
func NewClients(opts Opts, nodeEndpoints, treeEndpoints, vitalsEndpoints []string) Clients {
	return Clients{
		Node:           NewNodeClient(opts.WithEndpoints(nodeEndpoints)),
		PermissionTree: NewPermissionTreeClient(opts.WithEndpoints(treeEndpoints)),
		Vitals:         NewVitalsClient(opts.WithEndpoints(vitalsEndpoints)),
	}
}

var (
	_ Node           = (*NodeClient)(nil)
	_ PermissionTree = (*PermissionTreeClient)(nil)
	_ VitalsSource   = (*VitalsClient)(nil)
)
