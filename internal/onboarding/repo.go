package onboarding

import "context"

// DefaultListLimit is the page size of ListRecent when the caller gives none.
const DefaultListLimit = 10

// Repo persists onboarding records. Missing records yield ErrNotFound.
// Update is atomic per record: concurrent patches never lose each other's keys.
type Repo interface {
	Create(ctx context.Context, fields Record) (Record, error)
	GetByWorkflowID(ctx context.Context, workflowID string) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, workflowID string, patch Patch) (Record, error)
	ListAll(ctx context.Context) ([]Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListByStatus(ctx context.Context, status Status) ([]Record, error)
}
