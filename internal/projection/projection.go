package projection

import (
	"errors"
	"math"
)

// Instrument selects the growth profile applied to a window's principal.
type Instrument string

const (
	// InstrumentPPF grows at the fixed small-savings rate and earns the
	// deduction-based tax benefit.
	InstrumentPPF Instrument = "ppf"
	// InstrumentIndex grows at the equity index rate; no tax benefit.
	InstrumentIndex Instrument = "index"
)

const (
	ratePPF   = 0.08
	rateIndex = 0.12

	// RetirementAge fixes the investment horizon; younger savers compound
	// until this age, older ones get the minimum horizon.
	RetirementAge   = 60
	MinHorizonYears = 5
)

// ErrUnknownInstrument marks a caller bug, not recoverable input: the request
// carrying it is rejected whole.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Params describes the saver whose window sums are projected.
type Params struct {
	Instrument  Instrument
	Age         int
	MonthlyWage float64
	// Inflation accepts a fraction (0.06) or a percentage (6); values above 1
	// are treated as percentages.
	Inflation float64
}

// Outcome is one window's projected result, in display rupees.
type Outcome struct {
	Nominal    float64
	Profit     float64
	Real       float64
	TaxBenefit float64
}

// HorizonYears is the whole-year compounding span for a saver of this age.
func HorizonYears(age int) int {
	if age < RetirementAge {
		return RetirementAge - age
	}
	return MinHorizonYears
}

// NormalizeInflation maps percentage-style inputs (> 1) onto fractions.
func NormalizeInflation(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

func growthRate(in Instrument) (float64, error) {
	switch in {
	case InstrumentPPF:
		return ratePPF, nil
	case InstrumentIndex:
		return rateIndex, nil
	default:
		return 0, ErrUnknownInstrument
	}
}

// Project compounds a window principal over the saver's horizon and discounts
// it for inflation. The tax benefit applies to the PPF instrument only. All
// outputs are rounded to two decimals here, at the edge.
func Project(principal float64, p Params) (Outcome, error) {
	rate, err := growthRate(p.Instrument)
	if err != nil {
		return Outcome{}, err
	}

	years := float64(HorizonYears(p.Age))
	nominal := principal * math.Pow(1+rate, years)
	real := nominal / math.Pow(1+NormalizeInflation(p.Inflation), years)

	out := Outcome{
		Nominal: Round2(nominal),
		Profit:  Round2(nominal - principal),
		Real:    Round2(real),
	}
	if p.Instrument == InstrumentPPF {
		out.TaxBenefit = Round2(TaxBenefit(principal, p.MonthlyWage*12))
	}
	return out, nil
}

// Round2 rounds half away from zero to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
