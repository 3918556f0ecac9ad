package evaluations

import (
	"context"
	"time"
)

// StaleAfter is how long a processing claim is honored before another worker may take over.
const StaleAfter = 10 * time.Minute

// Repo defines persistence operations for evaluations.
type Repo interface {
	Create(ctx context.Context, ev Evaluation) error
	GetByID(ctx context.Context, id string) (Evaluation, error)
	// Claim moves a queued (or stale processing) evaluation to processing. It returns false
	// when another worker owns it or it already finished.
	Claim(ctx context.Context, id string, startedAt time.Time) (bool, error)
	Finish(ctx context.Context, id string, u Update) error
	List(ctx context.Context, limit, offset int) ([]Evaluation, error)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
