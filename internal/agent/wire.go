package agent

import "docqa/internal/bus"

// Wire registers the four pipeline agents on the bus under their
// well-known ids with their declared subscriptions.
func Wire(b *bus.Bus, ing *Ingestion, ret *Retrieval, resp *Response, coord *Coordinator) {
	b.Register(bus.IngestionID, ing, ing.Subscriptions()...)
	b.Register(bus.RetrievalID, ret, ret.Subscriptions()...)
	b.Register(bus.ResponseID, resp, resp.Subscriptions()...)
	b.Register(bus.CoordinatorID, coord, coord.Subscriptions()...)
}
