package provenance

import (
	"fmt"
	"strings"

	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
)

func accountFromRPC(a *rpc.Account, address Address) *Account {
	if a == nil {
		return nil
	}
	out := &Account{Address: address, Balances: make([]Balance, 0, len(a.Balances))}
	for _, b := range a.Balances {
		out.Balances = append(out.Balances, Balance{Amount: b.Amount, Currency: b.Currency})
	}
	if len(out.Balances) > 0 {
		out.Balance = float64(out.Balances[0].Amount) / MicroUnitsPerCoin
	}
	return out
}

func towerFromRPC(t *rpc.TowerState) *TowerState {
	if t == nil {
		return nil
	}
	return &TowerState{
		VerifiedTowerHeight:            t.VerifiedTowerHeight,
		ProofsInEpoch:                  t.ActualCountProofsInEpoch,
		LastEpochMined:                 t.LatestEpochMining,
		EpochsMining:                   t.EpochsValidatingAndMining,
		ContiguousEpochsMining:         t.ContiguousEpochsValidatingAndMining,
		EpochsSinceLastAccountCreation: t.EpochsSinceLastAccountCreation,
	}
}

func treeNodeFromRPC(n *rpc.PermissionTreeNode, address Address) (*PermissionTreeNode, error) {
	parent, err := ParseAddress(n.Parent)
	if err != nil {
		return nil, fmt.Errorf("permission tree parent: %w", err)
	}
	var operator *Address
	if n.OperatorAddress != nil {
		operator = parseOptional(*n.OperatorAddress)
	}
	return &PermissionTreeNode{
		Address:        address,
		Parent:         parent,
		Operator:       operator,
		EpochOnboarded: n.EpochOnboarded,
		Generation:     n.Generation,
	}, nil
}

func eventFromRPC(e *rpc.Event) Event {
	return Event{
		Type:               e.Data.Type,
		Sender:             parseOptional(e.Data.Sender),
		Receiver:           parseOptional(e.Data.Receiver),
		TransactionVersion: e.TransactionVersion,
	}
}

func eventsFromRPC(in []*rpc.Event) []Event {
	out := make([]Event, 0, len(in))
	for _, e := range in {
		if e == nil {
			continue
		}
		out = append(out, eventFromRPC(e))
	}
	return out
}

func transactionFromRPC(t *rpc.Transaction) Transaction {
	return Transaction{
		Version:  t.Version,
		Sender:   parseOptional(t.Transaction.Sender),
		Function: t.Transaction.Script.FunctionName,
		Events:   eventsFromRPC(t.Events),
	}
}

func proofsFromRPC(in []rpc.ProofHistoryEntry) []ProofHistoryEntry {
	if in == nil {
		return nil
	}
	out := make([]ProofHistoryEntry, 0, len(in))
	for _, p := range in {
		out = append(out, ProofHistoryEntry{Epoch: p.Epoch, Count: p.Count})
	}
	return out
}

func vitalsFromRPC(v *rpc.ValidatorView, wallets *registry.Registry) *ValidatorVitals {
	out := &ValidatorVitals{
		VoteCountInEpoch: v.VoteCountInEpoch,
		PropCountInEpoch: v.PropCountInEpoch,
		Autopay:          Autopay{Payments: []AutopayPayment{}},
	}
	if v.Autopay == nil {
		return out
	}
	out.Autopay.RecurringSum = v.Autopay.RecurringSum
	out.Autopay.RecurringPercent = float64(v.Autopay.RecurringSum) / 100
	for _, p := range v.Autopay.Payments {
		payee := strings.ToLower(p.Payee)
		payment := AutopayPayment{Payee: payee, Amount: p.Amount, EndEpoch: p.EndEpoch}
		if w, ok := wallets.Lookup(payee); ok {
			payment.PayeeName = w.Name
		}
		out.Autopay.Payments = append(out.Autopay.Payments, payment)
	}
	return out
}
