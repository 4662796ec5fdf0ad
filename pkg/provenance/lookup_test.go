package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	bothFound := IndexLookupResult{
		Validator: TreeLookup{Status: LookupFound},
		Miner:     TreeLookup{Status: LookupFound},
	}
	minerMissing := IndexLookupResult{
		Validator: TreeLookup{Status: LookupFound},
		Miner:     TreeLookup{Status: LookupNotFound},
	}
	validatorErrored := IndexLookupResult{
		Validator: TreeLookup{Status: LookupErrored},
		Miner:     TreeLookup{Status: LookupFound},
	}

	assert.Equal(t, StateDone, NextState(StateIndexLookup, bothFound))
	assert.Equal(t, StateFallbackScan, NextState(StateIndexLookup, minerMissing))
	assert.Equal(t, StateFallbackScan, NextState(StateIndexLookup, validatorErrored))
	assert.Equal(t, StateDone, NextState(StateFallbackScan, minerMissing))
	assert.Equal(t, StateDone, NextState(StateDone, minerMissing))
}

func TestLookupStateString(t *testing.T) {
	assert.Equal(t, "index_lookup", StateIndexLookup.String())
	assert.Equal(t, "fallback_scan", StateFallbackScan.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", LookupState(42).String())
}
