package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medibot/intake-platform/internal/mapping"
)

const journalKeyPrefix = "operation_state:"

// Journal persists the operation list produced for a conversation so a
// crashed import can be replayed. Entries are appended, never rewritten.
type Journal struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJournal wires the journal to Redis. ttl bounds how long an un-imported
// batch survives.
func NewJournal(client *redis.Client, ttl time.Duration) *Journal {
	return &Journal{client: client, ttl: ttl}
}

func journalKey(id string) string {
	return journalKeyPrefix + id
}

// Append records one batch of operations under the conversation id.
func (j *Journal) Append(ctx context.Context, id string, ops []mapping.Operation) error {
	payload, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("importer: encode journal entry: %w", err)
	}
	key := journalKey(id)
	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, j.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("importer: append journal entry: %w", err)
	}
	return nil
}

// Load returns every batch journaled for the conversation, oldest first.
func (j *Journal) Load(ctx context.Context, id string) ([][]mapping.Operation, error) {
	entries, err := j.client.LRange(ctx, journalKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("importer: load journal: %w", err)
	}
	out := make([][]mapping.Operation, 0, len(entries))
	for _, e := range entries {
		var ops []mapping.Operation
		if err := json.Unmarshal([]byte(e), &ops); err != nil {
			return nil, fmt.Errorf("importer: decode journal entry: %w", err)
		}
		out = append(out, ops)
	}
	return out, nil
}

// Clear removes the journal for a conversation after a successful import.
func (j *Journal) Clear(ctx context.Context, id string) error {
	if err := j.client.Del(ctx, journalKey(id)).Err(); err != nil {
		return fmt.Errorf("importer: clear journal: %w", err)
	}
	return nil
}

// Recover replays every journaled batch for a conversation through the
// importer, then clears the journal. Used on startup after a crash.
func (j *Journal) Recover(ctx context.Context, id string, im *Importer) (*Result, error) {
	batches, err := j.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var last *Result
	for _, ops := range batches {
		res, err := im.Apply(ctx, ops)
		if err != nil {
			return nil, fmt.Errorf("importer: recover %s: %w", id, err)
		}
		last = res
	}
	if err := j.Clear(ctx, id); err != nil {
		return nil, err
	}
	return last, nil
}
