package rpc

// Wire types for the ledger node, the permission-tree service and the vitals service.
// Addresses stay as the strings the services send; callers normalize them.

// --- Ledger node (JSON-RPC)

// rpcRequest is a JSON-RPC 2.0 call.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// rpcResponse is a JSON-RPC 2.0 answer. Result and Error may both be present.
type rpcResponse[T any] struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      uint64     `json:"id"`
	Result  T          `json:"result"`
	Error   *NodeError `json:"error,omitempty"`
}

// Balance is one currency balance of an account, in micro units.
type Balance struct {
	Amount   uint64 `json:"amount"`
	Currency string `json:"currency"`
}

// Account is the get_account result.
type Account struct {
	Address           string    `json:"address"`
	Balances          []Balance `json:"balances"`
	SequenceNumber    uint64    `json:"sequence_number"`
	AuthenticationKey string    `json:"authentication_key,omitempty"`
	IsFrozen          bool      `json:"is_frozen,omitempty"`
}

// TowerState is the get_tower_state_view result.
type TowerState struct {
	PreviousProofHash                   string `json:"previous_proof_hash,omitempty"`
	VerifiedTowerHeight                 uint64 `json:"verified_tower_height"`
	LatestEpochMining                   uint64 `json:"latest_epoch_mining"`
	CountProofsInEpoch                  uint64 `json:"count_proofs_in_epoch"`
	ActualCountProofsInEpoch            uint64 `json:"actual_count_proofs_in_epoch"`
	EpochsValidatingAndMining           uint64 `json:"epochs_validating_and_mining"`
	ContiguousEpochsValidatingAndMining uint64 `json:"contiguous_epochs_validating_and_mining"`
	EpochsSinceLastAccountCreation      uint64 `json:"epochs_since_last_account_creation"`
}

// EventData is the decoded body of an event.
type EventData struct {
	Type     string `json:"type"`
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

// Event is one entry of get_events, or of a transaction's events when fetched with include_events.
type Event struct {
	Key                string    `json:"key"`
	SequenceNumber     uint64    `json:"sequence_number"`
	TransactionVersion uint64    `json:"transaction_version"`
	Data               EventData `json:"data"`
}

// Script describes what a user transaction invoked.
type Script struct {
	Type         string `json:"type"`
	ModuleName   string `json:"module_name,omitempty"`
	FunctionName string `json:"function_name,omitempty"`
}

// TransactionData is the signed part of a transaction.
type TransactionData struct {
	Type           string `json:"type"`
	Sender         string `json:"sender,omitempty"`
	SequenceNumber uint64 `json:"sequence_number,omitempty"`
	Script         Script `json:"script"`
}

// Transaction is one entry of get_transactions.
type Transaction struct {
	Version     uint64          `json:"version"`
	Hash        string          `json:"hash,omitempty"`
	Transaction TransactionData `json:"transaction"`
	Events      []*Event        `json:"events"`
}

// Metadata is the get_metadata result.
type Metadata struct {
	Version   uint64 `json:"version"`
	Timestamp uint64 `json:"timestamp"`
	ChainID   uint64 `json:"chain_id"`
}

// --- Permission-tree service

// PermissionTreeNode is the onboarding record of an address. OperatorAddress is only set on validator trees.
type PermissionTreeNode struct {
	Address         string  `json:"address"`
	Parent          string  `json:"parent"`
	OperatorAddress *string `json:"operator_address,omitempty"`
	EpochOnboarded  *uint64 `json:"epoch_onboarded,omitempty"`
	Generation      *uint64 `json:"generation,omitempty"`
}

// ProofHistoryEntry is the number of proofs an address submitted in an epoch.
type ProofHistoryEntry struct {
	Epoch uint64 `json:"epoch"`
	Count uint64 `json:"count"`
}

// --- Vitals service

// AutopayPayment is one autopay instruction of a validator.
type AutopayPayment struct {
	Payee    string `json:"payee"`
	Amount   uint64 `json:"amount"`
	EndEpoch uint64 `json:"end_epoch"`
}

// Autopay is the autopay schedule of a validator. RecurringSum is in basis points.
type Autopay struct {
	RecurringSum uint64           `json:"recurring_sum"`
	Payments     []AutopayPayment `json:"payments"`
}

// ValidatorView is one validator in the vitals snapshot.
type ValidatorView struct {
	AccountAddress   string   `json:"account_address"`
	VoteCountInEpoch uint64   `json:"vote_count_in_epoch"`
	PropCountInEpoch uint64   `json:"prop_count_in_epoch"`
	Autopay          *Autopay `json:"autopay,omitempty"`
}

// ChainView groups the chain-level part of the vitals snapshot.
type ChainView struct {
	Epoch         uint64          `json:"epoch,omitempty"`
	Height        uint64          `json:"height,omitempty"`
	ValidatorView []ValidatorView `json:"validator_view"`
}

// Vitals is the vitals snapshot. Older monitors put validator_view at the top level.
type Vitals struct {
	ChainView     *ChainView      `json:"chain_view,omitempty"`
	ValidatorView []ValidatorView `json:"validator_view,omitempty"`
}

// Validators returns the validator list regardless of which layout the monitor used.
func (v *Vitals) Validators() []ValidatorView {
	if v == nil {
		return nil
	}
	if v.ChainView != nil && len(v.ChainView.ValidatorView) > 0 {
		return v.ChainView.ValidatorView
	}
	return v.ValidatorView
}
