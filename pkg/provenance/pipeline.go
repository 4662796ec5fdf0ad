package provenance

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/metrics"
	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// Config wires a Pipeline to its collaborators.
type Config struct {
	Node           rpc.Node
	PermissionTree rpc.PermissionTree
	Vitals         rpc.VitalsSource
	Wallets        *registry.Registry
	// Pool runs the concurrent remote calls. A pool sized by Parallelism(0) is created when nil.
	Pool    pond.Pool
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Pipeline classifies addresses. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	node    rpc.Node
	trees   rpc.PermissionTree
	wallets *registry.Registry
	pool    pond.Pool
	logger  *zap.Logger
	metrics *metrics.Metrics

	resolver  *PermissionTreeResolver
	scanner   *EventScanner
	inspector *TransactionInspector
	enricher  *VitalsEnricher
}

// New validates cfg and builds a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Node == nil {
		return nil, errors.New("provenance: node client is required")
	}
	if cfg.PermissionTree == nil {
		return nil, errors.New("provenance: permission tree client is required")
	}
	if cfg.Vitals == nil {
		return nil, errors.New("provenance: vitals client is required")
	}
	if cfg.Wallets == nil {
		cfg.Wallets = registry.Default()
	}
	if cfg.Pool == nil {
		cfg.Pool = NewPool(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pipeline{
		node:      cfg.Node,
		trees:     cfg.PermissionTree,
		wallets:   cfg.Wallets,
		pool:      cfg.Pool,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		resolver:  NewPermissionTreeResolver(cfg.PermissionTree, cfg.Pool, cfg.Logger),
		scanner:   NewEventScanner(cfg.Node),
		inspector: NewTransactionInspector(cfg.Node, cfg.Pool, cfg.Logger),
		enricher:  NewVitalsEnricher(cfg.Vitals, cfg.Wallets),
	}, nil
}

// Wallets returns the community wallet registry the pipeline classifies against.
func (p *Pipeline) Wallets() *registry.Registry {
	return p.wallets
}

// Classify runs the whole pipeline for address. It always returns a well-formed Classification;
// failures are listed in its Errors in stage order.
func (p *Pipeline) Classify(ctx context.Context, address Address) *Classification {
	logger := p.logger.With(zap.String("address", address.String()))
	out := &Classification{Address: address, Role: RoleUnclassified}
	var errs errorList

	// Account and tower state
	start := time.Now()
	account, tower, stageErrs := p.fetchAccount(ctx, address)
	p.metrics.ObserveStage("account", time.Since(start))
	errs = append(errs, stageErrs...)
	out.Account = account
	out.AccountFound = account != nil
	out.TowerState = tower

	if account == nil && len(stageErrs) == 0 {
		// The node answered and has no such account.
		logger.Debug("account not found")
		return p.finish(logger, out, errs)
	}

	// Provenance: index lookup, then the fallback scan when the index is incomplete.
	var (
		facts        Facts
		index        IndexLookupResult
		ownProofs    []ProofHistoryEntry
		ownProofsErr error
	)
	state := StateIndexLookup
	for state != StateDone {
		start = time.Now()
		switch state {
		case StateIndexLookup:
			logger.Debug("index lookup")
			index, ownProofs, ownProofsErr = p.indexLookup(ctx, address)
			facts = ApplyIndex(facts, index)
			errs = append(errs, index.lookupErrors()...)
			errs.add(StageProofHistory, ownProofsErr)
			out.LookupPath = PathIndex
		case StateFallbackScan:
			logger.Debug("fallback scan",
				zap.Stringer("validatorTree", index.Validator.Status),
				zap.Stringer("minerTree", index.Miner.Status))
			var scanErrs, inspectErrs errorList
			var candidates []Event
			candidates, scanErrs = p.scanner.Scan(ctx, address)
			facts, inspectErrs = p.inspector.Inspect(ctx, address, facts, candidates)
			errs = append(errs, scanErrs...)
			errs = append(errs, inspectErrs...)
			out.LookupPath = PathFallback
		}
		p.metrics.ObserveStage(state.String(), time.Since(start))
		state = NextState(state, index)
	}
	out.applyFacts(facts)

	wallet, isCommunityWallet := p.wallets.Lookup(address.String())
	out.Role = ClassifyRole(facts, tower, isCommunityWallet)
	if out.Role == RoleCommunityWallet {
		out.CommunityWallet = &wallet
	}

	// Operator proofs and vitals
	start = time.Now()
	operatorProofs, vitals, stageErrs := p.enrich(ctx, address, facts.OperatorAccount, out.Role)
	p.metrics.ObserveStage("enrichment", time.Since(start))
	errs = append(errs, stageErrs...)

	var lastEpochMined uint64
	if tower != nil {
		lastEpochMined = tower.LastEpochMined
	}
	out.ProofHistory = MergeProofHistory(ownProofs, operatorProofs, lastEpochMined)
	out.Vitals = vitals
	out.InActiveSet = vitals != nil

	return p.finish(logger, out, errs)
}

func (p *Pipeline) finish(logger *zap.Logger, out *Classification, errs errorList) *Classification {
	if len(errs) > 0 {
		out.Errors = errs
		for _, e := range errs {
			p.metrics.ObserveError(string(e.Stage), string(e.Kind))
			logger.Warn("classification degraded",
				zap.String("stage", string(e.Stage)),
				zap.String("kind", string(e.Kind)),
				zap.Int64("code", e.Code),
				zap.String("message", e.Message))
		}
	}
	p.metrics.ObserveClassification(string(out.Role), string(out.LookupPath))
	logger.Info("address classified",
		zap.String("role", string(out.Role)),
		zap.String("path", string(out.LookupPath)),
		zap.Int("errors", len(errs)))
	return out
}

func (p *Pipeline) fetchAccount(ctx context.Context, address Address) (*Account, *TowerState, errorList) {
	var (
		account  *rpc.Account
		tower    *rpc.TowerState
		accErr   error
		towerErr error
	)

	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	group.Submit(func() {
		account, accErr = p.node.Account(groupCtx, address.String())
	})
	group.Submit(func() {
		tower, towerErr = p.node.TowerState(groupCtx, address.String())
	})
	waitGroup(group, p.logger, "account")

	var errs errorList
	errs.add(StageAccount, accErr)
	errs.add(StageTowerState, towerErr)
	return accountFromRPC(account, address), towerFromRPC(tower), errs
}

// indexLookup runs both tree lookups with the address's own proof history fetch alongside. The
// resolver runs on the calling goroutine so no pool worker ever waits on other pool tasks.
func (p *Pipeline) indexLookup(ctx context.Context, address Address) (IndexLookupResult, []ProofHistoryEntry, error) {
	var (
		proofs    []rpc.ProofHistoryEntry
		proofsErr error
	)

	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	group.Submit(func() {
		proofs, proofsErr = p.trees.MinerProofHistory(groupCtx, address.String())
	})
	index := p.resolver.Lookup(ctx, address)
	waitGroup(group, p.logger, "index lookup")

	return index, proofsFromRPC(proofs), proofsErr
}

// enrich fetches the operator's proof history when there is an operator, and vitals for validators.
func (p *Pipeline) enrich(ctx context.Context, address Address, operator *Address, role Role) ([]ProofHistoryEntry, *ValidatorVitals, errorList) {
	var (
		operatorProofs    []rpc.ProofHistoryEntry
		operatorProofsErr error
		vitals            *ValidatorVitals
		vitalsErrs        errorList
	)

	if operator == nil && role != RoleValidator {
		return nil, nil, nil
	}

	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	if operator != nil {
		group.Submit(func() {
			operatorProofs, operatorProofsErr = p.trees.MinerProofHistory(groupCtx, operator.String())
		})
	}
	if role == RoleValidator {
		group.Submit(func() {
			vitals, vitalsErrs = p.enricher.Enrich(groupCtx, address)
		})
	}
	waitGroup(group, p.logger, "enrichment")

	var errs errorList
	errs.add(StageOperatorProofHistory, operatorProofsErr)
	errs = append(errs, vitalsErrs...)
	return proofsFromRPC(operatorProofs), vitals, errs
}
