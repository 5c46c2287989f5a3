package engine

import (
	"sort"

	"github.com/atom19-i/superannuation/internal/core"
)

type deltaEvent struct {
	at    core.Instant
	delta core.Paise
}

// ApplyExtras adds the sum of every covering extra period's amount on top of
// each transaction's current FinalRemanent. All overlapping periods contribute;
// nothing is replaced. Transactions must be sorted by instant ascending.
//
// Each inclusive period [start, end] becomes +extra at start and -extra at
// end+1, so a transaction exactly on the end instant still collects it.
// O((T+P) log P) for the event sort, O(T+P) for the walk.
func ApplyExtras(txs []core.Transaction, periods []core.ExtraPeriod) {
	if len(txs) == 0 || len(periods) == 0 {
		return
	}

	events := make([]deltaEvent, 0, 2*len(periods))
	for _, p := range periods {
		events = append(events,
			deltaEvent{at: p.Start, delta: p.Extra},
			deltaEvent{at: p.End + 1, delta: -p.Extra},
		)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].at < events[j].at })

	var running core.Paise
	next := 0
	for i := range txs {
		for next < len(events) && events[next].at <= txs[i].At {
			running += events[next].delta
			next++
		}
		txs[i].FinalRemanent += running
	}
}
