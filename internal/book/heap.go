package book

import "hyperion/internal/types"

// RestingOrder is a live order sitting in one side's heap, keyed by
// (price, timestamp) per spec §3/§4.1.
type RestingOrder struct {
	OrderId   types.OrderId
	Size      types.Size
	Price     types.Price
	Timestamp types.Timestamp
}

// BuyHeap is a max-heap ordered by highest price first, earliest
// timestamp breaking ties (spec §4.1: "higher price first; tie → earlier
// timestamp first").
type BuyHeap []*RestingOrder

func (h BuyHeap) Len() int { return len(h) }

func (h BuyHeap) Less(i, j int) bool {
	if h[i].Price == h[j].Price {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].Price > h[j].Price
}

func (h BuyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *BuyHeap) Push(x any) { *h = append(*h, x.(*RestingOrder)) }

func (h *BuyHeap) Pop() any {
	old := *h
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return o
}

// SellHeap is a priority heap (container/heap pops the element Less ranks
// first) ordered by lowest price first, earliest timestamp breaking ties (spec §4.1: "lower price first; tie → earlier timestamp
// first").
type SellHeap []*RestingOrder

func (h SellHeap) Len() int { return len(h) }

func (h SellHeap) Less(i, j int) bool {
	if h[i].Price == h[j].Price {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].Price < h[j].Price
}

func (h SellHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *SellHeap) Push(x any) { *h = append(*h, x.(*RestingOrder)) }

func (h *SellHeap) Pop() any {
	old := *h
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return o
}
