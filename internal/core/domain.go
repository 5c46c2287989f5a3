package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrPeriodInverted = errors.New("period start is after its end")
)

// OutOfRangeError reports a money field outside its allowed half-open range.
type OutOfRangeError struct {
	Field    string
	Value    Paise
	Min, Max Paise
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s must be in [%s, %s), got %s", e.Field, e.Min, e.Max, e.Value)
}

// InvalidTimestampError reports a calendar text that does not match the fixed
// pattern or does not denote a real calendar moment.
type InvalidTimestampError struct {
	Field string
	Value string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("%s must match %q, got %q", e.Field, "YYYY-MM-DD HH:mm:ss", e.Value)
}

// RejectCode classifies why an input record was excluded from a batch.
type RejectCode string

const (
	RejectInvalid   RejectCode = "INVALID_TRANSACTION"
	RejectDuplicate RejectCode = "DUPLICATE_TIMESTAMP"
	RejectMismatch  RejectCode = "REMANENT_MISMATCH"
)

// Transaction is one accepted expense record flowing through a pipeline run.
// FinalRemanent is the only mutable field and is confined to that run: the
// override step may replace it once, the extras step may add to it once.
type Transaction struct {
	Timestamp     string // original text, echoed back on the wire
	At            Instant
	Amount        Paise
	Ceiling       Paise
	BaseRemanent  Paise
	FinalRemanent Paise
	Pos           int // zero-based input position
}

// NewTransaction derives the ceiling and remanents for an accepted record.
func NewTransaction(timestamp string, at Instant, amount Paise, pos int) Transaction {
	ceiling := CeilToSlab(amount)
	rem := ceiling - amount
	return Transaction{
		Timestamp:     timestamp,
		At:            at,
		Amount:        amount,
		Ceiling:       ceiling,
		BaseRemanent:  rem,
		FinalRemanent: rem,
		Pos:           pos,
	}
}

// OverridePeriod replaces the remanent of every transaction inside [Start, End]
// with Fixed, subject to the latest-start / first-declared precedence rule.
type OverridePeriod struct {
	ID    string
	Fixed Paise
	Start Instant
	End   Instant
	Pos   int
}

// Validate enforces the start<=end invariant.
func (p OverridePeriod) Validate() error {
	if p.Start > p.End {
		return ErrPeriodInverted
	}
	return nil
}

// ExtraPeriod adds Extra on top of the remanent of every transaction inside
// [Start, End]; overlapping extras all apply.
type ExtraPeriod struct {
	ID    string
	Extra Paise
	Start Instant
	End   Instant
}

func (p ExtraPeriod) Validate() error {
	if p.Start > p.End {
		return ErrPeriodInverted
	}
	return nil
}

// SavingsWindow is an independent inclusive range whose final remanents are
// summed for reporting and projection. Windows may overlap freely.
type SavingsWindow struct {
	ID        string
	Start     Instant
	End       Instant
	StartText string
	EndText   string
	Pos       int
}

func (w SavingsWindow) Validate() error {
	if w.Start > w.End {
		return ErrPeriodInverted
	}
	return nil
}
