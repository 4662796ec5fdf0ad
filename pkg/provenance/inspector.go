package provenance

import (
	"context"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// Script functions that create accounts.
const (
	FunctionCreateValidatorAccount = "create_acc_val"
	FunctionCreateUserByCoin       = "create_user_by_coin_tx"

	// EventReceivedPayment is the event a new operator account gets when it is funded.
	EventReceivedPayment = "receivedpayment"
)

// genesisVersion is the version of the transaction that wrote the genesis state.
const genesisVersion = 0

// TransactionInspector is the second half of the fallback: it fetches the transaction behind each
// candidate event and reads who created the address from it.
type TransactionInspector struct {
	node   rpc.Node
	pool   pond.Pool
	logger *zap.Logger
}

// NewTransactionInspector returns an inspector submitting its fetches to pool.
func NewTransactionInspector(node rpc.Node, pool pond.Pool, logger *zap.Logger) *TransactionInspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionInspector{node: node, pool: pool, logger: logger}
}

type fetchedTransaction struct {
	tx  *Transaction
	err error
}

// Inspect fetches one transaction per candidate concurrently, then applies them to f in log order.
// When no creator is known afterwards the address is attributed to genesis, and the genesis
// transaction is searched for an operator it funded. Failed fetches contribute nothing.
func (i *TransactionInspector) Inspect(ctx context.Context, address Address, f Facts, candidates []Event) (Facts, errorList) {
	fetched := i.fetchAll(ctx, candidates)

	var errs errorList
	for _, r := range fetched {
		errs.add(StageTransactions, r.err)
		if r.tx != nil {
			f = ApplyTransaction(f, address, *r.tx)
		}
	}

	if f.hasCreator() {
		return f, errs
	}

	f.OnboardedBy = GenesisMarker
	genesis, err := i.fetch(ctx, genesisVersion)
	errs.add(StageGenesis, err)
	if genesis != nil {
		f = ApplyGenesis(f, address, *genesis)
	}
	return f, errs
}

// fetchAll fills one slot per candidate so results keep candidate order whatever order they finish in.
func (i *TransactionInspector) fetchAll(ctx context.Context, candidates []Event) []fetchedTransaction {
	out := make([]fetchedTransaction, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	group := i.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for idx, candidate := range candidates {
		group.Submit(func() {
			tx, err := i.fetch(groupCtx, candidate.TransactionVersion)
			out[idx] = fetchedTransaction{tx: tx, err: err}
		})
	}
	waitGroup(group, i.logger, "transaction fetch")
	return out
}

func (i *TransactionInspector) fetch(ctx context.Context, version uint64) (*Transaction, error) {
	txs, err := i.node.Transactions(ctx, version, 1, true)
	if len(txs) == 0 || txs[0] == nil {
		return nil, err
	}
	tx := transactionFromRPC(txs[0])
	return &tx, err
}

// ApplyTransaction reads the creation facts one transaction carries. A coin onboarding only fills
// OnboardedBy when nothing set it before, and a genesis validator record keeps both creator fields.
func ApplyTransaction(f Facts, address Address, tx Transaction) Facts {
	switch tx.Function {
	case FunctionCreateValidatorAccount:
		if operator := findOperatorPayment(tx.Events, address); operator != nil {
			f.OperatorAccount = operator
		}
		if tx.Sender != nil && !f.genesisValidator {
			f.ValidatorCreatedBy = tx.Sender
		}
	case FunctionCreateUserByCoin:
		if tx.Sender != nil && f.OnboardedBy == "" {
			f.OnboardedBy = tx.Sender.Creator()
		}
	}
	return f
}

// findOperatorPayment returns the receiver of the first payment to an account other than address.
func findOperatorPayment(events []Event, address Address) *Address {
	for _, e := range events {
		if e.Type != EventReceivedPayment || e.Receiver == nil {
			continue
		}
		if *e.Receiver != address {
			return e.Receiver
		}
	}
	return nil
}

// ApplyGenesis marks address as a genesis validator when the genesis transaction has an event it
// sent; that event's receiver is its operator.
func ApplyGenesis(f Facts, address Address, genesis Transaction) Facts {
	for _, e := range genesis.Events {
		if e.Sender == nil || *e.Sender != address {
			continue
		}
		f.ValidatorCreatedBy = addressPtr(GenesisAddress)
		if e.Receiver != nil {
			f.OperatorAccount = e.Receiver
		}
		return f
	}
	return f
}
