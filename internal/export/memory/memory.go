// Package memory is an in-process run ledger used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/atom19-i/superannuation/internal/storage"
)

type Ledger struct {
	mu   sync.Mutex
	runs []storage.Run
}

func New() *Ledger {
	return &Ledger{}
}

// Append stores the run and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, run storage.Run) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return fmt.Sprintf("mem:%d", len(l.runs)), nil
}

// Runs returns a copy of everything appended so far.
func (l *Ledger) Runs() []storage.Run {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]storage.Run(nil), l.runs...)
}
