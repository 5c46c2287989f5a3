package engine

import (
	"sort"

	"github.com/atom19-i/superannuation/internal/core"
)

// WindowSum pairs a savings window with the remanent total it captured.
type WindowSum struct {
	Window core.SavingsWindow
	Amount core.Paise
}

// SumWindows computes, for each window independently, the sum of FinalRemanent
// over transactions whose instant lies in [Start, End]. Windows may overlap;
// transactions are counted once per covering window by design.
//
// Transactions must be sorted by instant ascending. One prefix-sum pass plus
// two binary searches per window: O(T) build, O(W log T) queries.
func SumWindows(txs []core.Transaction, windows []core.SavingsWindow) []WindowSum {
	prefix := make([]core.Paise, len(txs)+1)
	for i := range txs {
		prefix[i+1] = prefix[i] + txs[i].FinalRemanent
	}

	sums := make([]WindowSum, 0, len(windows))
	for _, w := range windows {
		lo := sort.Search(len(txs), func(i int) bool { return txs[i].At >= w.Start })
		hi := sort.Search(len(txs), func(i int) bool { return txs[i].At > w.End })
		sums = append(sums, WindowSum{Window: w, Amount: prefix[hi] - prefix[lo]})
	}
	return sums
}
