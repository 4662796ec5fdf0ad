package provenance

import (
	"github.com/0lexplorer/explorerx/pkg/registry"
)

// Role is what kind of participant an address is.
type Role string

const (
	RoleValidator       Role = "Validator"
	RoleOperator        Role = "Operator"
	RoleMiner           Role = "Miner"
	RoleCommunityWallet Role = "CommunityWallet"
	RoleUnclassified    Role = "Unclassified"
)

// MicroUnitsPerCoin scales raw balances to display coins.
const MicroUnitsPerCoin = 1_000_000

// TowerState is an address's proof-of-work lifecycle statistics.
type TowerState struct {
	VerifiedTowerHeight            uint64 `json:"verifiedTowerHeight"`
	ProofsInEpoch                  uint64 `json:"proofsInEpoch"`
	LastEpochMined                 uint64 `json:"lastEpochMined"`
	EpochsMining                   uint64 `json:"epochsMining"`
	ContiguousEpochsMining         uint64 `json:"contiguousEpochsMining"`
	EpochsSinceLastAccountCreation uint64 `json:"epochsSinceLastAccountCreation"`
}

// PermissionTreeNode is an onboarding record from the permission-tree index.
type PermissionTreeNode struct {
	Address        Address
	Parent         Address
	Operator       *Address
	EpochOnboarded *uint64
	Generation     *uint64
}

// Event is a ledger event reduced to what the provenance search reads.
type Event struct {
	Type               string
	Sender             *Address
	Receiver           *Address
	TransactionVersion uint64
}

// Transaction is a historical transaction with the events it produced.
type Transaction struct {
	Version  uint64
	Sender   *Address
	Function string
	Events   []Event
}

// ProofHistoryEntry is the number of proofs submitted in one epoch.
type ProofHistoryEntry struct {
	Epoch uint64 `json:"epoch"`
	Count uint64 `json:"count"`
}

// Onboarding holds the epoch and generation an address was onboarded at, for one tree.
type Onboarding struct {
	EpochOnboarded *uint64 `json:"epochOnboarded,omitempty"`
	Generation     *uint64 `json:"generation,omitempty"`
}

func (o Onboarding) empty() bool {
	return o.EpochOnboarded == nil && o.Generation == nil
}

func (o Onboarding) ptr() *Onboarding {
	if o.empty() {
		return nil
	}
	return &o
}

// Balance is one currency balance.
type Balance struct {
	Amount   uint64 `json:"amount"`
	Currency string `json:"currency"`
}

// Account is the ledger account summary.
type Account struct {
	Address  Address   `json:"address"`
	Balances []Balance `json:"balances"`
	// Balance is the first balance in whole coins.
	Balance float64 `json:"balance"`
}

// AutopayPayment is one recurring payment instruction.
type AutopayPayment struct {
	Payee     string `json:"payee"`
	PayeeName string `json:"payeeName,omitempty"`
	Amount    uint64 `json:"amount"`
	EndEpoch  uint64 `json:"endEpoch"`
}

// Autopay is a validator's autopay schedule. RecurringSum is in basis points.
type Autopay struct {
	RecurringSum     uint64           `json:"recurringSum"`
	RecurringPercent float64          `json:"recurringPercent"`
	Payments         []AutopayPayment `json:"payments"`
}

// ValidatorVitals is the live vitals entry of a validator in the active set.
type ValidatorVitals struct {
	VoteCountInEpoch uint64  `json:"voteCountInEpoch"`
	PropCountInEpoch uint64  `json:"propCountInEpoch"`
	Autopay          Autopay `json:"autopay"`
}

// Facts is the accumulator threaded through every pipeline stage. Stages take a Facts value and
// return the updated value; nothing else holds onto it.
type Facts struct {
	// OnboardedBy is an address in text form, GenesisMarker, or empty when unknown.
	OnboardedBy        string
	ValidatorCreatedBy *Address
	OperatorAccount    *Address
	Miner              Onboarding
	Validator          Onboarding

	// genesisValidator is set when the validator tree lists genesis as the parent. Both creator
	// fields are then settled and the fallback does not touch them.
	genesisValidator bool
}

func (f Facts) hasCreator() bool {
	return f.OnboardedBy != "" || f.ValidatorCreatedBy != nil
}

// Classification is the result of one pipeline run.
type Classification struct {
	Address      Address    `json:"address"`
	AccountFound bool       `json:"accountFound"`
	Account      *Account   `json:"account,omitempty"`
	Role         Role       `json:"role"`
	LookupPath   LookupPath `json:"lookupPath,omitempty"`

	OnboardedBy        string      `json:"onboardedBy,omitempty"`
	ValidatorCreatedBy *Address    `json:"validatorCreatedBy,omitempty"`
	OperatorAccount    *Address    `json:"operatorAccount,omitempty"`
	Miner              *Onboarding `json:"miner,omitempty"`
	Validator          *Onboarding `json:"validator,omitempty"`

	TowerState   *TowerState         `json:"towerState,omitempty"`
	ProofHistory []ProofHistoryEntry `json:"proofHistory,omitempty"`

	// InActiveSet is only meaningful for validators: whether the vitals snapshot lists the address.
	InActiveSet     bool             `json:"inActiveSet"`
	Vitals          *ValidatorVitals `json:"vitals,omitempty"`
	CommunityWallet *registry.Wallet `json:"communityWallet,omitempty"`

	Errors []PipelineError `json:"errors,omitempty"`
}

// HasError reports whether a failure was recorded for stage.
func (c *Classification) HasError(stage Stage) bool {
	for _, e := range c.Errors {
		if e.Stage == stage {
			return true
		}
	}
	return false
}

func (c *Classification) applyFacts(f Facts) {
	c.OnboardedBy = f.OnboardedBy
	c.ValidatorCreatedBy = f.ValidatorCreatedBy
	c.OperatorAccount = f.OperatorAccount
	c.Miner = f.Miner.ptr()
	c.Validator = f.Validator.ptr()
}
