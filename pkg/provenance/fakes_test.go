package provenance

import (
	"context"
	"sync"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// fakeUpstream serves canned answers for all three upstream services. Maps are only read once a
// test starts classifying, so concurrent calls need no locking beyond the call log.
type fakeUpstream struct {
	accounts     map[string]*rpc.Account
	accountErr   map[string]error
	towers       map[string]*rpc.TowerState
	towerErr     map[string]error
	validatorT   map[string]*rpc.PermissionTreeNode
	validatorErr map[string]error
	minerT       map[string]*rpc.PermissionTreeNode
	minerErr     map[string]error
	proofs       map[string][]rpc.ProofHistoryEntry
	proofErr     map[string]error
	events       map[string][]*rpc.Event
	eventsErr    error
	txs          map[uint64]*rpc.Transaction
	txErr        map[uint64]error
	vitals       *rpc.Vitals
	vitalsErr    error

	mu    sync.Mutex
	calls []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		accounts:     map[string]*rpc.Account{},
		accountErr:   map[string]error{},
		towers:       map[string]*rpc.TowerState{},
		towerErr:     map[string]error{},
		validatorT:   map[string]*rpc.PermissionTreeNode{},
		validatorErr: map[string]error{},
		minerT:       map[string]*rpc.PermissionTreeNode{},
		minerErr:     map[string]error{},
		proofs:       map[string][]rpc.ProofHistoryEntry{},
		proofErr:     map[string]error{},
		events:       map[string][]*rpc.Event{},
		txs:          map[uint64]*rpc.Transaction{},
		txErr:        map[uint64]error{},
	}
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeUpstream) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) Account(_ context.Context, address string) (*rpc.Account, error) {
	f.record("account")
	return f.accounts[address], f.accountErr[address]
}

func (f *fakeUpstream) TowerState(_ context.Context, address string) (*rpc.TowerState, error) {
	f.record("tower")
	return f.towers[address], f.towerErr[address]
}

func (f *fakeUpstream) Events(_ context.Context, key string, _, _ uint64) ([]*rpc.Event, error) {
	f.record("events")
	return f.events[key], f.eventsErr
}

func (f *fakeUpstream) Transactions(_ context.Context, start, _ uint64, _ bool) ([]*rpc.Transaction, error) {
	f.record("transactions")
	if err := f.txErr[start]; err != nil {
		return nil, err
	}
	tx, ok := f.txs[start]
	if !ok {
		return nil, nil
	}
	return []*rpc.Transaction{tx}, nil
}

func (f *fakeUpstream) ValidatorPermissionTree(_ context.Context, address string) (*rpc.PermissionTreeNode, error) {
	f.record("validator_tree")
	if err := f.validatorErr[address]; err != nil {
		return nil, err
	}
	node, ok := f.validatorT[address]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return node, nil
}

func (f *fakeUpstream) MinerPermissionTree(_ context.Context, address string) (*rpc.PermissionTreeNode, error) {
	f.record("miner_tree")
	if err := f.minerErr[address]; err != nil {
		return nil, err
	}
	node, ok := f.minerT[address]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return node, nil
}

func (f *fakeUpstream) MinerProofHistory(_ context.Context, address string) ([]rpc.ProofHistoryEntry, error) {
	f.record("proofs:" + address)
	if err := f.proofErr[address]; err != nil {
		return nil, err
	}
	proofs, ok := f.proofs[address]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return proofs, nil
}

func (f *fakeUpstream) Vitals(context.Context) (*rpc.Vitals, error) {
	f.record("vitals")
	return f.vitals, f.vitalsErr
}

func u64(v uint64) *uint64 { return &v }

func str(s string) *string { return &s }

func treeNode(address, parent string) *rpc.PermissionTreeNode {
	return &rpc.PermissionTreeNode{Address: address, Parent: parent}
}

func paymentEvent(version uint64, sender, receiver string) *rpc.Event {
	return &rpc.Event{
		TransactionVersion: version,
		Data:               rpc.EventData{Type: EventReceivedPayment, Sender: sender, Receiver: receiver},
	}
}
