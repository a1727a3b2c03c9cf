package onboarding

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo. Records live for the life of the process.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]*memoryEntry // workflowId -> entry
	seq  uint64
	now  func() time.Time
}

type memoryEntry struct {
	rec Record
	seq uint64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]*memoryEntry),
		now:  time.Now,
	}
}

// Create stores a new record built from fields.
func (r *MemoryRepo) Create(ctx context.Context, fields Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	rec := NewRecord(fields, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.data[rec.WorkflowID] = &memoryEntry{rec: rec, seq: r.seq}
	return rec.Clone(), nil
}

// GetByWorkflowID returns the record for workflowID.
func (r *MemoryRepo) GetByWorkflowID(ctx context.Context, workflowID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.data[workflowID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return entry.rec.Clone(), nil
}

// GetByID scans for a record by its internal id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.data {
		if entry.rec.ID == id {
			return entry.rec.Clone(), nil
		}
	}
	return Record{}, ErrNotFound
}

// Update merges patch into the stored record under the write lock.
func (r *MemoryRepo) Update(ctx context.Context, workflowID string, patch Patch) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.data[workflowID]
	if !ok {
		return Record{}, ErrNotFound
	}
	next, err := entry.rec.Apply(patch, r.now())
	if err != nil {
		return Record{}, err
	}
	entry.rec = next
	return next.Clone(), nil
}

// ListAll returns every record, newest first.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Record, error) {
	return r.list(ctx, func(Record) bool { return true }, -1)
}

// ListRecent returns at most limit records, newest first.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 0 {
		limit = 0
	}
	return r.list(ctx, func(Record) bool { return true }, limit)
}

// ListByStatus returns records with exactly status, newest first.
func (r *MemoryRepo) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	return r.list(ctx, func(rec Record) bool { return rec.Status == status }, -1)
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Record) bool, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := make([]memoryEntry, 0, len(r.data))
	for _, entry := range r.data {
		if keep(entry.rec) {
			entries = append(entries, memoryEntry{rec: entry.rec.Clone(), seq: entry.seq})
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})

	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]Record, len(entries))
	for i := range entries {
		out[i] = entries[i].rec
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
