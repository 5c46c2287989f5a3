package export

import (
	"context"

	"github.com/atom19-i/superannuation/internal/storage"
)

// Ports for outbound adapters.
type (
	// RunAppender writes one recorded run to an external ledger.
	RunAppender interface {
		Append(ctx context.Context, run storage.Run) (rowRef string, err error)
	}
)
