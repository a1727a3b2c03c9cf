package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "kyc"
	maxUpdateRetries   = 10
)

// RedisRepo stores each record as a JSON document, with a sorted set
// scored by creation time for ordering and a hash for id lookups. Sorted set
// members are "<seq>:<workflowId>" with a zero-padded creation sequence, so
// records created in the same microsecond still list newest first.
type RedisRepo struct {
	Client redis.UniversalClient
	Prefix string
	Now    func() time.Time
}

// NewRedisRepo constructs a RedisRepo with the default key prefix.
func NewRedisRepo(client redis.UniversalClient) *RedisRepo {
	return &RedisRepo{Client: client, Prefix: defaultRedisPrefix}
}

func (r *RedisRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *RedisRepo) prefix() string {
	if r.Prefix == "" {
		return defaultRedisPrefix
	}
	return r.Prefix
}

func (r *RedisRepo) recordKey(workflowID string) string {
	return r.prefix() + ":onboarding:" + workflowID
}

func (r *RedisRepo) createdIndexKey() string {
	return r.prefix() + ":onboardings:by_created"
}

func (r *RedisRepo) idIndexKey() string {
	return r.prefix() + ":onboardings:by_id"
}

func (r *RedisRepo) seqKey() string {
	return r.prefix() + ":onboardings:seq"
}

func createdMember(seq int64, workflowID string) string {
	return fmt.Sprintf("%020d:%s", seq, workflowID)
}

func memberWorkflowID(member string) string {
	if _, workflowID, ok := strings.Cut(member, ":"); ok {
		return workflowID
	}
	return member
}

// Create stores a new record and indexes it.
func (r *RedisRepo) Create(ctx context.Context, fields Record) (Record, error) {
	rec := NewRecord(fields, r.now())
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encode onboarding: %w", err)
	}
	seq, err := r.Client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return Record{}, fmt.Errorf("allocate onboarding sequence: %w", err)
	}

	_, err = r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(rec.WorkflowID), data, 0)
		pipe.ZAdd(ctx, r.createdIndexKey(), redis.Z{
			Score:  float64(rec.CreatedAt.UnixMicro()),
			Member: createdMember(seq, rec.WorkflowID),
		})
		pipe.HSet(ctx, r.idIndexKey(), rec.ID, rec.WorkflowID)
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("store onboarding: %w", err)
	}
	return rec, nil
}

// GetByWorkflowID fetches a record by workflow id.
func (r *RedisRepo) GetByWorkflowID(ctx context.Context, workflowID string) (Record, error) {
	raw, err := r.Client.Get(ctx, r.recordKey(workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return decodeRecord(raw)
}

// GetByID resolves the workflow id through the id index.
func (r *RedisRepo) GetByID(ctx context.Context, id string) (Record, error) {
	workflowID, err := r.Client.HGet(ctx, r.idIndexKey(), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return r.GetByWorkflowID(ctx, workflowID)
}

// Update applies patch inside a WATCH transaction, retrying when another writer wins.
func (r *RedisRepo) Update(ctx context.Context, workflowID string, patch Patch) (Record, error) {
	key := r.recordKey(workflowID)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var updated Record
		err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFound
				}
				return err
			}
			current, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			next, err := current.Apply(patch, r.now())
			if err != nil {
				return err
			}
			data, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode onboarding: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err == nil {
				updated = next
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Record{}, err
		}
		return updated, nil
	}
	return Record{}, fmt.Errorf("update onboarding %s: gave up after %d conflicting writes", workflowID, maxUpdateRetries)
}

// ListAll returns every record, newest first.
func (r *RedisRepo) ListAll(ctx context.Context) ([]Record, error) {
	return r.listRange(ctx, 0, -1)
}

// ListRecent returns at most limit records, newest first.
func (r *RedisRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	return r.listRange(ctx, 0, int64(limit-1))
}

// ListByStatus filters ListAll by exact status.
func (r *RedisRepo) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(all))
	for _, rec := range all {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisRepo) listRange(ctx context.Context, start, stop int64) ([]Record, error) {
	members, err := r.Client.ZRevRange(ctx, r.createdIndexKey(), start, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = r.recordKey(memberWorkflowID(m))
	}
	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode onboarding: %w", err)
	}
	return rec, nil
}

var _ Repo = (*RedisRepo)(nil)
