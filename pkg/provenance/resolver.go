package provenance

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// LookupStatus is the outcome of one permission-tree lookup.
type LookupStatus int

const (
	LookupNotFound LookupStatus = iota
	LookupFound
	LookupErrored
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupErrored:
		return "errored"
	default:
		return "not_found"
	}
}

// TreeLookup is the result of looking an address up in one permission tree.
type TreeLookup struct {
	Status LookupStatus
	Node   *PermissionTreeNode
	Err    error
}

// found returns the node only when the lookup succeeded.
func (l TreeLookup) found() (*PermissionTreeNode, bool) {
	if l.Status != LookupFound || l.Node == nil {
		return nil, false
	}
	return l.Node, true
}

// IndexLookupResult pairs the validator-tree and miner-tree lookups.
type IndexLookupResult struct {
	Validator TreeLookup
	Miner     TreeLookup
}

// NeedsFallback reports whether either lookup came back without a record. Errored lookups count as
// not found here; their errors are reported separately.
func (r IndexLookupResult) NeedsFallback() bool {
	return r.Validator.Status != LookupFound || r.Miner.Status != LookupFound
}

// PermissionTreeResolver is the fast path: both permission trees queried concurrently.
type PermissionTreeResolver struct {
	trees  rpc.PermissionTree
	pool   pond.Pool
	logger *zap.Logger
}

// NewPermissionTreeResolver returns a resolver submitting its lookups to pool.
func NewPermissionTreeResolver(trees rpc.PermissionTree, pool pond.Pool, logger *zap.Logger) *PermissionTreeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionTreeResolver{trees: trees, pool: pool, logger: logger}
}

// Lookup queries the validator and miner trees for address and waits for both.
func (r *PermissionTreeResolver) Lookup(ctx context.Context, address Address) IndexLookupResult {
	var res IndexLookupResult

	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	group.Submit(func() {
		node, err := r.trees.ValidatorPermissionTree(groupCtx, address.String())
		res.Validator = treeLookup(node, err, address)
	})
	group.Submit(func() {
		node, err := r.trees.MinerPermissionTree(groupCtx, address.String())
		res.Miner = treeLookup(node, err, address)
	})
	waitGroup(group, r.logger, "permission tree lookup")

	return res
}

func treeLookup(node *rpc.PermissionTreeNode, err error, address Address) TreeLookup {
	switch {
	case errors.Is(err, rpc.ErrNotFound):
		return TreeLookup{Status: LookupNotFound}
	case err != nil:
		return TreeLookup{Status: LookupErrored, Err: err}
	case node == nil:
		return TreeLookup{Status: LookupNotFound}
	}
	converted, convErr := treeNodeFromRPC(node, address)
	if convErr != nil {
		return TreeLookup{Status: LookupErrored, Err: convErr}
	}
	return TreeLookup{Status: LookupFound, Node: converted}
}

// ApplyIndex folds the permission-tree lookups into f. Both rules apply independently; when the
// validator record's parent is genesis it overrides any miner-derived OnboardedBy.
func ApplyIndex(f Facts, res IndexLookupResult) Facts {
	validator, validatorFound := res.Validator.found()

	if miner, ok := res.Miner.found(); ok {
		if !validatorFound || validator.Parent != miner.Parent {
			f.OnboardedBy = miner.Parent.Creator()
		}
		if miner.EpochOnboarded != nil {
			f.Miner.EpochOnboarded = miner.EpochOnboarded
		}
		if miner.Generation != nil {
			f.Miner.Generation = miner.Generation
		}
	}

	if validatorFound {
		f.ValidatorCreatedBy = addressPtr(validator.Parent)
		if validator.Parent.IsGenesis() {
			f.OnboardedBy = GenesisMarker
			f.genesisValidator = true
		}
		if validator.Operator != nil {
			f.OperatorAccount = validator.Operator
		}
		if validator.EpochOnboarded != nil {
			f.Validator.EpochOnboarded = validator.EpochOnboarded
		}
		if validator.Generation != nil {
			f.Validator.Generation = validator.Generation
		}
	}

	return f
}

// lookupErrors returns the lookup failures in validator, miner order.
func (r IndexLookupResult) lookupErrors() errorList {
	var errs errorList
	errs.add(StageValidatorTree, r.Validator.Err)
	errs.add(StageMinerTree, r.Miner.Err)
	return errs
}
