package provenance

import (
	"errors"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// Stage names a remote call of the pipeline.
type Stage string

const (
	StageAccount              Stage = "account"
	StageTowerState           Stage = "tower_state"
	StageValidatorTree        Stage = "validator_tree"
	StageMinerTree            Stage = "miner_tree"
	StageProofHistory         Stage = "proof_history"
	StageEvents               Stage = "events"
	StageTransactions         Stage = "transactions"
	StageGenesis              Stage = "genesis"
	StageOperatorProofHistory Stage = "operator_proof_history"
	StageVitals               Stage = "vitals"
)

// ErrorKind separates the failure classes a caller may present differently.
type ErrorKind string

const (
	// KindUpstream is an error object embedded in an otherwise successful node response.
	KindUpstream ErrorKind = "upstream"
	// KindTransient is a failed fetch: bad status, transport failure or undecodable body.
	KindTransient ErrorKind = "transient"
	// KindLookup is a permission-tree lookup that failed with something other than 404.
	KindLookup ErrorKind = "lookup"
)

// PipelineError is a failure recorded during classification. None of them abort the run.
type PipelineError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Code    int64     `json:"code,omitempty"`
	Message string    `json:"message"`
}

func (e PipelineError) Error() string {
	return string(e.Stage) + ": " + e.Message
}

// notFoundIsAnswer lists the stages where a 404 means the service has no record for the address.
// Anywhere else a 404 is a failed fetch.
var notFoundIsAnswer = map[Stage]bool{
	StageValidatorTree:        true,
	StageMinerTree:            true,
	StageProofHistory:         true,
	StageOperatorProofHistory: true,
}

// recordError converts err into a PipelineError. A nil error records nothing, and neither does a
// not-found answer from the permission-tree service.
func recordError(stage Stage, err error) (PipelineError, bool) {
	if err == nil || (notFoundIsAnswer[stage] && errors.Is(err, rpc.ErrNotFound)) {
		return PipelineError{}, false
	}

	pe := PipelineError{Stage: stage, Kind: KindTransient, Message: err.Error()}

	var nodeErr *rpc.NodeError
	var statusErr *rpc.StatusError
	switch {
	case errors.As(err, &nodeErr):
		pe.Kind = KindUpstream
		pe.Code = nodeErr.Code
		pe.Message = nodeErr.Message
	case errors.As(err, &statusErr):
		pe.Code = int64(statusErr.Code)
	}

	if stage == StageValidatorTree || stage == StageMinerTree {
		pe.Kind = KindLookup
	}
	return pe, true
}

// errorList collects errors in call order.
type errorList []PipelineError

func (l *errorList) add(stage Stage, err error) {
	if pe, ok := recordError(stage, err); ok {
		*l = append(*l, pe)
	}
}
