package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/FACorreiaa/go-roteiro-planner/internal/store"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// KeyPrefix namespaces draft records in the key/value backend.
const KeyPrefix = "draftSchedule:"

// Store persists at most one draft per session.
type Store interface {
	// Load returns the saved draft, or a fresh empty one if none exists.
	// A record saved without an id comes back with uuid.Nil.
	Load(ctx context.Context, session string) (types.Draft, error)
	Save(ctx context.Context, session string, d types.Draft) error
	Clear(ctx context.Context, session string) error
}

var _ Store = (*KVStore)(nil)

// KVStore keeps drafts as JSON documents in a store.KV.
type KVStore struct {
	logger *slog.Logger
	kv     store.KV
}

func NewKVStore(kv store.KV, logger *slog.Logger) *KVStore {
	return &KVStore{logger: logger, kv: kv}
}

func key(session string) string {
	return KeyPrefix + session
}

func (s *KVStore) Load(ctx context.Context, session string) (types.Draft, error) {
	b, err := s.kv.Get(ctx, key(session))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.NewDraft(), nil
		}
		return types.Draft{}, fmt.Errorf("failed to load draft: %w", err)
	}

	var d types.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		// An unreadable record is treated like no record at all.
		s.logger.WarnContext(ctx, "Discarding unreadable draft record",
			slog.String("session", session), slog.Any("error", err))
		return types.NewDraft(), nil
	}
	if d.Activities == nil {
		d.Activities = []types.Activity{}
	}
	return d, nil
}

func (s *KVStore) Save(ctx context.Context, session string, d types.Draft) error {
	if d.Activities == nil {
		d.Activities = []types.Activity{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.kv.Set(ctx, key(session), b); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context, session string) error {
	if err := s.kv.Delete(ctx, key(session)); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// IDGenerator hands out activity identifiers.
type IDGenerator interface {
	Next() int64
}

var _ IDGenerator = (*MonotonicIDs)(nil)

// MonotonicIDs is a strictly increasing counter. Seeding it with the start
// time in milliseconds keeps ids above those issued by a previous process.
type MonotonicIDs struct {
	last atomic.Int64
}

func NewMonotonicIDs(seed int64) *MonotonicIDs {
	g := &MonotonicIDs{}
	g.last.Store(seed)
	return g
}

func (g *MonotonicIDs) Next() int64 {
	return g.last.Add(1)
}
