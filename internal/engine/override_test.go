package engine

import (
	"testing"

	"github.com/atom19-i/superannuation/internal/core"
)

func txAt(at core.Instant, amount core.Paise, pos int) core.Transaction {
	return core.NewTransaction(core.FormatTimestamp(at), at, amount, pos)
}

func TestApplyOverrides_TieBreaks(t *testing.T) {
	// P2 declared first shares P1's start; P3 starts later. At an instant where
	// all are active: P3 wins by latest start. Between t0 and t1, P2 wins by
	// input order.
	p1 := core.OverridePeriod{ID: "p1", Fixed: 1100, Start: 100, End: 500, Pos: 1}
	p2 := core.OverridePeriod{ID: "p2", Fixed: 2200, Start: 100, End: 500, Pos: 0}
	p3 := core.OverridePeriod{ID: "p3", Fixed: 3300, Start: 200, End: 300, Pos: 2}

	txs := []core.Transaction{
		txAt(150, 25000, 0), // only p1/p2 active
		txAt(250, 25000, 1), // all three active
		txAt(400, 25000, 2), // p3 expired, back to p2
	}
	ApplyOverrides(txs, []core.OverridePeriod{p1, p2, p3})

	if txs[0].FinalRemanent != 2200 {
		t.Fatalf("at 150 expected first-declared p2 (2200), got %d", txs[0].FinalRemanent)
	}
	if txs[1].FinalRemanent != 3300 {
		t.Fatalf("at 250 expected latest-start p3 (3300), got %d", txs[1].FinalRemanent)
	}
	if txs[2].FinalRemanent != 2200 {
		t.Fatalf("at 400 expected p2 after p3 expiry (2200), got %d", txs[2].FinalRemanent)
	}
}

func TestApplyOverrides_NoCoverageKeepsBase(t *testing.T) {
	p := core.OverridePeriod{Fixed: 0, Start: 100, End: 200, Pos: 0}
	txs := []core.Transaction{
		txAt(50, 25000, 0),  // before
		txAt(100, 25000, 1), // start is inclusive
		txAt(200, 25000, 2), // end is inclusive
		txAt(201, 25000, 3), // after
	}
	base := txs[0].BaseRemanent
	ApplyOverrides(txs, []core.OverridePeriod{p})

	if txs[0].FinalRemanent != base || txs[3].FinalRemanent != base {
		t.Fatalf("uncovered transactions must keep base remanent %d, got %d and %d",
			base, txs[0].FinalRemanent, txs[3].FinalRemanent)
	}
	if txs[1].FinalRemanent != 0 || txs[2].FinalRemanent != 0 {
		t.Fatalf("covered transactions must take the fixed amount, got %d and %d",
			txs[1].FinalRemanent, txs[2].FinalRemanent)
	}
}

func TestApplyOverrides_LazyExpiryDeepHeap(t *testing.T) {
	// A long-lived early period buried under short-lived later ones must
	// resurface once they expire.
	long := core.OverridePeriod{Fixed: 111, Start: 0, End: 1000, Pos: 0}
	shortA := core.OverridePeriod{Fixed: 222, Start: 10, End: 20, Pos: 1}
	shortB := core.OverridePeriod{Fixed: 333, Start: 15, End: 18, Pos: 2}

	txs := []core.Transaction{
		txAt(16, 25000, 0),
		txAt(19, 25000, 1),
		txAt(30, 25000, 2),
	}
	ApplyOverrides(txs, []core.OverridePeriod{long, shortA, shortB})

	want := []core.Paise{333, 222, 111}
	for i, w := range want {
		if txs[i].FinalRemanent != w {
			t.Fatalf("tx %d expected %d, got %d", i, w, txs[i].FinalRemanent)
		}
	}
}

func TestApplyOverrides_Empty(t *testing.T) {
	txs := []core.Transaction{txAt(10, 25000, 0)}
	ApplyOverrides(txs, nil)
	if txs[0].FinalRemanent != txs[0].BaseRemanent {
		t.Fatal("no periods must be a no-op")
	}
	ApplyOverrides(nil, []core.OverridePeriod{{Fixed: 1, Start: 0, End: 1}})
}
