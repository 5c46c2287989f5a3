// Package engine implements the temporal rule pipeline: override resolution,
// additive sweep and window aggregation over a time-sorted transaction stream.
//
// Every entry point is a pure function over caller-owned slices; nothing here
// blocks, allocates shared state, or outlives a call.
package engine

import (
	"container/heap"
	"sort"

	"github.com/atom19-i/superannuation/internal/core"
)

// overrideHeap orders active periods so the winner sits on top: latest start
// first, and among equal starts the earliest-declared period.
type overrideHeap []core.OverridePeriod

func (h overrideHeap) Len() int { return len(h) }

func (h overrideHeap) Less(i, j int) bool {
	if h[i].Start != h[j].Start {
		return h[i].Start > h[j].Start
	}
	return h[i].Pos < h[j].Pos
}

func (h overrideHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *overrideHeap) Push(x any) { *h = append(*h, x.(core.OverridePeriod)) }

func (h *overrideHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// ApplyOverrides replaces FinalRemanent with the winning period's fixed amount
// for every transaction covered by at least one override period. Transactions
// must already be sorted by instant ascending.
//
// Periods are admitted in start order as the stream advances; expired periods
// are evicted lazily from the top of the heap only, since only the current
// winner's validity matters at each instant. O((T+P) log P).
func ApplyOverrides(txs []core.Transaction, periods []core.OverridePeriod) {
	if len(txs) == 0 || len(periods) == 0 {
		return
	}

	sorted := make([]core.OverridePeriod, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Pos < sorted[j].Pos
	})

	active := &overrideHeap{}
	next := 0
	for i := range txs {
		at := txs[i].At
		for next < len(sorted) && sorted[next].Start <= at {
			heap.Push(active, sorted[next])
			next++
		}
		// Lazy expiry: only the top candidate needs to be valid.
		for active.Len() > 0 && (*active)[0].End < at {
			heap.Pop(active)
		}
		if active.Len() > 0 {
			txs[i].FinalRemanent = (*active)[0].Fixed
		}
	}
}
