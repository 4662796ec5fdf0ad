package provenance

import (
	"context"

	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// EventScanLimit is the number of events read from the start of an address's event log.
const EventScanLimit = 1000

// EventScanner is the first half of the fallback: it reads the raw event log of an address and
// keeps the events that could point at the transaction that created it.
type EventScanner struct {
	node rpc.Node
}

// NewEventScanner returns a scanner reading from node.
func NewEventScanner(node rpc.Node) *EventScanner {
	return &EventScanner{node: node}
}

// Scan fetches the address's events and returns the candidates in log order. Each call fetches
// afresh. A node error embedded next to a result still yields the returned events.
func (s *EventScanner) Scan(ctx context.Context, address Address) ([]Event, errorList) {
	var errs errorList
	events, err := s.node.Events(ctx, address.EventsKey(), 0, EventScanLimit)
	errs.add(StageEvents, err)
	return FilterCandidates(eventsFromRPC(events)), errs
}

// FilterCandidates drops events sent by the genesis account. Order is preserved.
func FilterCandidates(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Sender != nil && e.Sender.IsGenesis() {
			continue
		}
		out = append(out, e)
	}
	return out
}
