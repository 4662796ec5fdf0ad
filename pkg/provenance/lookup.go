package provenance

// LookupState is the per-address search state: IndexLookup → Done, or IndexLookup → FallbackScan → Done.
type LookupState int

const (
	StateIndexLookup LookupState = iota
	StateFallbackScan
	StateDone
)

func (s LookupState) String() string {
	switch s {
	case StateIndexLookup:
		return "index_lookup"
	case StateFallbackScan:
		return "fallback_scan"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// LookupPath records which route produced the provenance facts.
type LookupPath string

const (
	PathIndex    LookupPath = "index"
	PathFallback LookupPath = "fallback"
)

// NextState is the transition function. The index lookup hands over to the fallback scan whenever
// either tree lookup did not find a record; the fallback always completes.
func NextState(s LookupState, index IndexLookupResult) LookupState {
	switch s {
	case StateIndexLookup:
		if index.NeedsFallback() {
			return StateFallbackScan
		}
		return StateDone
	default:
		return StateDone
	}
}
