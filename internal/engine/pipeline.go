package engine

import (
	"fmt"
	"sort"

	"github.com/atom19-i/superannuation/internal/core"
)

// Profile selects which semantic checks a batch run applies to its records.
//
// The strict profile verifies a caller-declared remanent against the computed
// base value; the filter profile accepts records without that check. The two
// are deliberately distinct surfaces, not one knob.
type Profile int

const (
	ProfileFilter Profile = iota
	ProfileStrict
)

// RawTransaction is one wire record before parsing. Amount and Remanent carry
// whatever JSON shape the caller sent (string or number).
type RawTransaction struct {
	Timestamp string
	Amount    any
	Remanent  any // declared remanent, checked under ProfileStrict only
	Pos       int
}

// Rejected is a record excluded from a batch, with the reason it was excluded.
// The batch continues without it.
type Rejected struct {
	Record  RawTransaction
	Code    core.RejectCode
	Message string
}

// Outcome partitions a batch into accepted transactions and rejections.
type Outcome struct {
	Valid      []core.Transaction
	Invalid    []Rejected
	Duplicates []Rejected
}

// Totals are running sums across all accepted transactions of a run.
type Totals struct {
	Amount   core.Paise
	Ceiling  core.Paise
	Remanent core.Paise
}

// Input is one full rule-pipeline invocation. Period slices arrive already
// parsed: a malformed period is a request-level error at the boundary, not a
// per-record one.
type Input struct {
	Transactions []RawTransaction
	Overrides    []core.OverridePeriod
	Extras       []core.ExtraPeriod
	Windows      []core.SavingsWindow
	Profile      Profile
}

// Result is the outcome of a run. Transactions are in instant order with their
// final remanents settled; Windows preserve their input order.
type Result struct {
	Outcome Outcome
	Windows []WindowSum
	Totals  Totals
}

// Validate parses and screens a batch without running the rule steps. Records
// are rejected individually; processing never aborts mid-batch.
func Validate(records []RawTransaction, profile Profile) Outcome {
	out := Outcome{}
	seen := make(map[core.Instant]int, len(records)) // instant -> first input pos

	for _, rec := range records {
		at, err := core.ParseTimestamp(rec.Timestamp, "timestamp")
		if err != nil {
			out.Invalid = append(out.Invalid, Rejected{
				Record: rec, Code: core.RejectInvalid, Message: err.Error(),
			})
			continue
		}
		amount, err := core.ParseAmount(rec.Amount)
		if err != nil {
			out.Invalid = append(out.Invalid, Rejected{
				Record: rec, Code: core.RejectInvalid,
				Message: "amount must be a valid decimal value",
			})
			continue
		}
		if err := core.ValidateRange(amount, 0, core.MaxAmountPaise, "amount"); err != nil {
			out.Invalid = append(out.Invalid, Rejected{
				Record: rec, Code: core.RejectInvalid, Message: err.Error(),
			})
			continue
		}

		tx := core.NewTransaction(rec.Timestamp, at, amount, rec.Pos)

		if profile == ProfileStrict && rec.Remanent != nil {
			declared, err := core.ParseAmount(rec.Remanent)
			if err != nil {
				out.Invalid = append(out.Invalid, Rejected{
					Record: rec, Code: core.RejectInvalid,
					Message: "remanent must be a valid decimal value",
				})
				continue
			}
			if declared != tx.BaseRemanent {
				out.Invalid = append(out.Invalid, Rejected{
					Record: rec, Code: core.RejectMismatch,
					Message: fmt.Sprintf("declared remanent %s does not match computed %s",
						declared, tx.BaseRemanent),
				})
				continue
			}
		}

		if first, dup := seen[at]; dup {
			out.Duplicates = append(out.Duplicates, Rejected{
				Record: rec, Code: core.RejectDuplicate,
				Message: fmt.Sprintf("timestamp %q already seen at transactions[%d]", rec.Timestamp, first),
			})
			continue
		}
		seen[at] = rec.Pos
		out.Valid = append(out.Valid, tx)
	}
	return out
}

// Run executes the fixed rule order over a batch: screen and dedupe, derive
// base remanents, apply the override index, add the extras sweep, then sum the
// savings windows. The order never changes.
func Run(in Input) Result {
	outcome := Validate(in.Transactions, in.Profile)

	txs := outcome.Valid
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].At < txs[j].At })

	ApplyOverrides(txs, in.Overrides)
	ApplyExtras(txs, in.Extras)
	sums := SumWindows(txs, in.Windows)

	var totals Totals
	for i := range txs {
		totals.Amount += txs[i].Amount
		totals.Ceiling += txs[i].Ceiling
		totals.Remanent += txs[i].FinalRemanent
	}

	return Result{Outcome: outcome, Windows: sums, Totals: totals}
}
