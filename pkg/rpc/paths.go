package rpc

import "net/url"

// The node speaks JSON-RPC 2.0 on its root path; everything else is REST.
const (
	nodeRPCPath = "/"

	methodGetAccount      = "get_account"
	methodGetTowerState   = "get_tower_state_view"
	methodGetEvents       = "get_events"
	methodGetTransactions = "get_transactions"
	methodGetMetadata     = "get_metadata"

	validatorTreePath = "/permission-tree/validator/"
	minerTreePath     = "/permission-tree/miner/"
	proofHistoryPath  = "/epochs/proofs/"

	vitalsPath = "/vitals"
)

func addressPath(prefix, address string) string {
	return prefix + url.PathEscape(address)
}
