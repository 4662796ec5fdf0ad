package provenance

import (
	"context"
	"strings"

	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// VitalsEnricher attaches live voting, proposal and autopay data to validators.
type VitalsEnricher struct {
	source  rpc.VitalsSource
	wallets *registry.Registry
}

// NewVitalsEnricher returns an enricher reading snapshots from source. Autopay payees found in
// wallets are named.
func NewVitalsEnricher(source rpc.VitalsSource, wallets *registry.Registry) *VitalsEnricher {
	return &VitalsEnricher{source: source, wallets: wallets}
}

// Enrich fetches a snapshot and returns the entry for address, or nil when the address is not in it.
func (e *VitalsEnricher) Enrich(ctx context.Context, address Address) (*ValidatorVitals, errorList) {
	var errs errorList
	snapshot, err := e.source.Vitals(ctx)
	errs.add(StageVitals, err)
	if snapshot == nil {
		return nil, errs
	}
	view := FindValidator(snapshot, address)
	if view == nil {
		return nil, errs
	}
	return vitalsFromRPC(view, e.wallets), errs
}

// FindValidator returns the snapshot entry whose address matches, compared case-insensitively.
func FindValidator(snapshot *rpc.Vitals, address Address) *rpc.ValidatorView {
	want := address.String()
	validators := snapshot.Validators()
	for i := range validators {
		got := strings.TrimPrefix(strings.TrimPrefix(validators[i].AccountAddress, "0x"), "0X")
		if strings.EqualFold(got, want) {
			return &validators[i]
		}
	}
	return nil
}
