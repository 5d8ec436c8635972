package syncer

import (
	"encoding/json"
	"errors"

	"github.com/minhng/focusgarden/internal/logger"
	"github.com/minhng/focusgarden/internal/store"
)

// Meta is the persisted sync bookkeeping, kept under its own store key so a
// failing state write cannot corrupt it. The two id slices are the durable
// tombstone queues: deletions stay queued until the remote store confirms
// removal, preventing resurrection by a later pull.
type Meta struct {
	LastSyncMs        int64    `json:"last_sync_ms"`
	ForcePushOnce     bool     `json:"force_push_once"`
	DeletedLabelIDs   []string `json:"deleted_label_ids"`
	DeletedSessionIDs []string `json:"deleted_session_ids"`
}

func loadMeta(s *store.Store) *Meta {
	m := &Meta{}
	raw, err := s.Get(store.KeySyncMeta)
	if errors.Is(err, store.ErrNotFound) {
		return m
	}
	if err != nil {
		logger.Warn("Failed to read sync metadata", logger.F("error", err))
		return m
	}
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		logger.Warn("Corrupt sync metadata, starting fresh", logger.F("error", err))
		return &Meta{}
	}
	return m
}

func saveMeta(s *store.Store, m *Meta) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.Set(store.KeySyncMeta, string(data)); err != nil {
		logger.Warn("Failed to persist sync metadata", logger.F("error", err))
	}
}

// enqueue adds id to ids if not already present. Tombstone membership is
// by stable identifier equality.
func enqueue(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
