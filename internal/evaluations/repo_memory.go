package evaluations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores evaluations in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Evaluation
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Evaluation),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the evaluation.
func (r *MemoryRepo) Create(ctx context.Context, ev Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.UpdatedAt.IsZero() {
		ev.UpdatedAt = ev.CreatedAt
	}
	r.byID[ev.ID] = ev
	return nil
}

// GetByID returns an evaluation by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.byID[id]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return ev, nil
}

// Claim marks the evaluation as processing if nobody else holds it.
func (r *MemoryRepo) Claim(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	switch ev.Status {
	case StatusQueued:
	case StatusProcessing:
		if ev.StartedAt != nil && startedAt.Sub(*ev.StartedAt) < StaleAfter {
			return false, nil
		}
	default:
		return false, nil
	}
	ev.Status = StatusProcessing
	ev.StartedAt = &startedAt
	ev.UpdatedAt = r.now()
	r.byID[id] = ev
	return true, nil
}

// Finish records the terminal state of an evaluation.
func (r *MemoryRepo) Finish(ctx context.Context, id string, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if u.Status != "" {
		ev.Status = u.Status
	}
	if u.Result != nil {
		ev.Result = u.Result
	}
	if u.PhaseCompleted != "" {
		ev.PhaseCompleted = u.PhaseCompleted
	}
	if u.TranscriptKey != "" {
		ev.TranscriptKey = u.TranscriptKey
	}
	if u.ErrorCode != nil {
		ev.ErrorCode = u.ErrorCode
	}
	if u.ErrorMessage != nil {
		ev.ErrorMessage = u.ErrorMessage
	}
	if u.CompletedAt != nil {
		ev.CompletedAt = u.CompletedAt
	} else if ev.Terminal() && ev.CompletedAt == nil {
		now := r.now()
		ev.CompletedAt = &now
	}
	ev.UpdatedAt = r.now()
	r.byID[id] = ev
	return nil
}

// List returns evaluations ordered newest-first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	r.mu.RLock()
	all := make([]Evaluation, 0, len(r.byID))
	for _, ev := range r.byID {
		all = append(all, ev)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []Evaluation{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
