package provenance

import "sort"

// MergeProofHistory combines an address's proof history with its operator's. Counts for the same
// epoch are summed, the result is ordered by epoch descending, and the newest entry is dropped when
// it is lastEpochMined: that epoch is still in progress and reported by the tower state instead.
// A nil operator list means there is no operator; the trim still applies.
func MergeProofHistory(own, operator []ProofHistoryEntry, lastEpochMined uint64) []ProofHistoryEntry {
	merged := make([]ProofHistoryEntry, 0, len(own)+len(operator))
	merged = foldProofs(merged, own)
	merged = foldProofs(merged, operator)

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Epoch > merged[j].Epoch })

	if len(merged) > 0 && merged[0].Epoch == lastEpochMined {
		merged = merged[1:]
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// foldProofs adds each entry onto the entry with the same epoch, appending unmatched epochs.
func foldProofs(into, entries []ProofHistoryEntry) []ProofHistoryEntry {
	for _, e := range entries {
		matched := false
		for i := range into {
			if into[i].Epoch == e.Epoch {
				into[i].Count += e.Count
				matched = true
				break
			}
		}
		if !matched {
			into = append(into, e)
		}
	}
	return into
}
