package provenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

func createValidatorTx(version uint64, sender string, events ...*rpc.Event) *rpc.Transaction {
	return &rpc.Transaction{
		Version: version,
		Transaction: rpc.TransactionData{
			Sender: sender,
			Script: rpc.Script{FunctionName: FunctionCreateValidatorAccount},
		},
		Events: events,
	}
}

func newInspector(t *testing.T, up *fakeUpstream) *TransactionInspector {
	t.Helper()
	pool := NewPool(4)
	t.Cleanup(pool.StopAndWait)
	return NewTransactionInspector(up, pool, nil)
}

func TestApplyTransactionCreateValidator(t *testing.T) {
	addr := MustParseAddress(target)
	tx := transactionFromRPC(createValidatorTx(5, creatorA,
		paymentEvent(5, creatorA, target),
		paymentEvent(5, creatorA, operator),
	))

	f := ApplyTransaction(Facts{}, addr, tx)

	require.NotNil(t, f.ValidatorCreatedBy)
	assert.Equal(t, MustParseAddress(creatorA), *f.ValidatorCreatedBy)
	require.NotNil(t, f.OperatorAccount)
	assert.Equal(t, MustParseAddress(operator), *f.OperatorAccount)
	assert.Empty(t, f.OnboardedBy)
}

func TestApplyTransactionCreateUser(t *testing.T) {
	tx := Transaction{Function: FunctionCreateUserByCoin, Sender: addressPtr(MustParseAddress(creatorB))}

	f := ApplyTransaction(Facts{}, MustParseAddress(target), tx)

	assert.Equal(t, creatorB, f.OnboardedBy)
	assert.Nil(t, f.ValidatorCreatedBy)
}

func TestApplyTransactionIgnoresOtherFunctions(t *testing.T) {
	tx := Transaction{Function: "balance_transfer", Sender: addressPtr(MustParseAddress(creatorB))}
	assert.Equal(t, Facts{}, ApplyTransaction(Facts{}, MustParseAddress(target), tx))
}

func TestInspectAppliesInLogOrder(t *testing.T) {
	up := newFakeUpstream()
	up.txs[3] = createValidatorTx(3, creatorA)
	up.txs[8] = createValidatorTx(8, creatorB)
	candidates := []Event{{TransactionVersion: 3}, {TransactionVersion: 8}}

	f, errs := newInspector(t, up).Inspect(context.Background(), MustParseAddress(target), Facts{}, candidates)

	assert.Empty(t, errs)
	assert.Equal(t, MustParseAddress(creatorB), *f.ValidatorCreatedBy)
	assert.Equal(t, 2, up.called("transactions"))
}

func TestInspectFallsBackToGenesis(t *testing.T) {
	up := newFakeUpstream()
	up.txs[genesisVersion] = &rpc.Transaction{
		Version: genesisVersion,
		Events: []*rpc.Event{
			paymentEvent(0, creatorA, creatorB),
			paymentEvent(0, target, operator),
		},
	}
	up.txErr[4] = &rpc.StatusError{Code: 500}

	f, errs := newInspector(t, up).Inspect(context.Background(), MustParseAddress(target), Facts{},
		[]Event{{TransactionVersion: 4}})

	assert.Equal(t, GenesisMarker, f.OnboardedBy)
	require.NotNil(t, f.ValidatorCreatedBy)
	assert.True(t, f.ValidatorCreatedBy.IsGenesis())
	assert.Equal(t, MustParseAddress(operator), *f.OperatorAccount)

	require.Len(t, errs, 1)
	assert.Equal(t, StageTransactions, errs[0].Stage)
	assert.Equal(t, KindTransient, errs[0].Kind)
}

func TestInspectGenesisWithoutMatchingEvent(t *testing.T) {
	up := newFakeUpstream()
	up.txs[genesisVersion] = &rpc.Transaction{Events: []*rpc.Event{paymentEvent(0, creatorA, creatorB)}}

	f, errs := newInspector(t, up).Inspect(context.Background(), MustParseAddress(target), Facts{}, nil)

	assert.Empty(t, errs)
	assert.Equal(t, GenesisMarker, f.OnboardedBy)
	assert.Nil(t, f.ValidatorCreatedBy)
	assert.Nil(t, f.OperatorAccount)
}

func TestInspectKeepsIndexFacts(t *testing.T) {
	up := newFakeUpstream()
	start := Facts{OnboardedBy: creatorA}

	f, _ := newInspector(t, up).Inspect(context.Background(), MustParseAddress(target), start, nil)

	assert.Equal(t, creatorA, f.OnboardedBy)
	assert.Zero(t, up.called("transactions"))
}

func TestApplyTransactionKeepsGenesisValidator(t *testing.T) {
	addr := MustParseAddress(target)
	f := ApplyIndex(Facts{}, IndexLookupResult{
		Validator: treeLookup(treeNode(target, genesis), nil, addr),
		Miner:     TreeLookup{Status: LookupNotFound},
	})

	f = ApplyTransaction(f, addr, Transaction{Function: FunctionCreateUserByCoin, Sender: addressPtr(addr)})
	f = ApplyTransaction(f, addr, transactionFromRPC(createValidatorTx(9, creatorA, paymentEvent(9, creatorA, operator))))

	assert.Equal(t, GenesisMarker, f.OnboardedBy)
	require.NotNil(t, f.ValidatorCreatedBy)
	assert.True(t, f.ValidatorCreatedBy.IsGenesis())
	require.NotNil(t, f.OperatorAccount)
	assert.Equal(t, MustParseAddress(operator), *f.OperatorAccount)
}

func TestApplyTransactionCreateUserFirstWins(t *testing.T) {
	addr := MustParseAddress(target)
	first := Transaction{Function: FunctionCreateUserByCoin, Sender: addressPtr(MustParseAddress(creatorA))}
	second := Transaction{Function: FunctionCreateUserByCoin, Sender: addressPtr(MustParseAddress(creatorB))}

	f := ApplyTransaction(ApplyTransaction(Facts{}, addr, first), addr, second)

	assert.Equal(t, creatorA, f.OnboardedBy)
}
