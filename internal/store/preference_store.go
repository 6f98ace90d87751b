package store

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk-notify/internal/storage"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

// PreferenceStore owns the user's delivery preferences. Updates are shallow
// merges; unknown keys are preserved for forward compatibility.
type PreferenceStore struct {
	log *zap.SugaredLogger
	kv  storage.KV

	mu    sync.RWMutex
	prefs types.Preferences
}

// NewPreferenceStore creates a store backed by kv, loading any persisted
// preferences and falling back to defaults when none exist or the stored
// record is corrupt.
func NewPreferenceStore(kv storage.KV) *PreferenceStore {
	s := &PreferenceStore{
		log:   logger.GetLogger().Named("preference_store"),
		kv:    kv,
		prefs: types.DefaultPreferences(),
	}

	data, ok, err := kv.Get(storage.KeyPreferences)
	if err != nil {
		s.log.Warnw("Failed to load persisted preferences", "error", err)
		return s
	}
	if !ok {
		return s
	}

	var loaded types.Preferences
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warnw("Discarding corrupt persisted preferences", "error", err)
		return s
	}
	s.prefs = loaded
	return s
}

// Get returns a copy of the current preferences.
func (s *PreferenceStore) Get() types.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.prefs
	if s.prefs.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.prefs.Extra))
		for k, v := range s.prefs.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Update applies a shallow merge of the partial record and writes the
// result through to durable storage.
func (s *PreferenceStore) Update(partial map[string]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = s.prefs.Merge(partial)

	data, err := json.Marshal(s.prefs)
	if err != nil {
		s.log.Errorw("Failed to encode preferences for persistence", "error", err)
		return
	}
	if err := s.kv.Set(storage.KeyPreferences, data); err != nil {
		s.log.Warnw("Failed to persist preferences", "error", err)
	}
}
