package core

import "testing"

func TestNewTransactionDerivesRemanent(t *testing.T) {
	tx := NewTransaction("2023-02-04 10:00:00", 100, 25000, 0) // ₹250
	if tx.Ceiling != 30000 {
		t.Fatalf("expected ceiling 30000, got %d", tx.Ceiling)
	}
	if tx.BaseRemanent != 5000 || tx.FinalRemanent != 5000 {
		t.Fatalf("expected remanent 5000/5000, got %d/%d", tx.BaseRemanent, tx.FinalRemanent)
	}

	onSlab := NewTransaction("2023-02-04 10:00:00", 100, 30000, 1)
	if onSlab.BaseRemanent != 0 {
		t.Fatalf("on-slab amount should have zero remanent, got %d", onSlab.BaseRemanent)
	}
}

func TestPeriodValidate(t *testing.T) {
	if err := (OverridePeriod{Start: 10, End: 10}).Validate(); err != nil {
		t.Fatalf("point period should be valid: %v", err)
	}
	if err := (OverridePeriod{Start: 11, End: 10}).Validate(); err == nil {
		t.Fatal("inverted override period should be rejected")
	}
	if err := (ExtraPeriod{Start: 11, End: 10}).Validate(); err == nil {
		t.Fatal("inverted extra period should be rejected")
	}
	if err := (SavingsWindow{Start: 11, End: 10}).Validate(); err == nil {
		t.Fatal("inverted window should be rejected")
	}
}
