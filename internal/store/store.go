package store

import (
	"encoding/json"
	"time"

	"attune/internal/logging"
	"attune/internal/types"
)

// SessionStore owns the serialized form of the three collections: the test
// session array, the per-metric history map, and the shared-info map. All
// other packages go through it; nothing else touches the KV directly.
//
// Reads degrade to empty defaults when a key is absent or its payload is
// unreadable - malformed storage is treated as "no data", never as an error.
// Writes go through save helpers that wrap failures in
// *types.StorageWriteError.
//
// Save and AppendHistory are read-then-write, not atomic read-modify-write.
// The assumed deployment is a single foreground writer; concurrent writers
// can lose updates.
type SessionStore struct {
	kv KV
}

// NewSessionStore wraps a KV in the collection-level contract.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// =============================================================================
// SESSIONS
// =============================================================================

// GetAll returns every stored test session in insertion order. Absent or
// unreadable storage yields an empty slice.
func (s *SessionStore) GetAll() []types.TestSession {
	raw, ok, err := s.kv.Get(keySessions)
	if err != nil || !ok {
		return nil
	}
	var sessions []types.TestSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		logging.Get(logging.CategoryStore).Warn("Unreadable session collection, treating as empty: %v", err)
		return nil
	}
	return sessions
}

// GetByID returns the session with the given id.
func (s *SessionStore) GetByID(id string) (types.TestSession, bool) {
	for _, sess := range s.GetAll() {
		if sess.ID == id {
			return sess, true
		}
	}
	return types.TestSession{}, false
}

// ListByType returns sessions of the given type, in insertion order.
func (s *SessionStore) ListByType(t types.SessionType) []types.TestSession {
	var out []types.TestSession
	for _, sess := range s.GetAll() {
		if sess.Type == t {
			out = append(out, sess)
		}
	}
	return out
}

// ListByStatus returns sessions with the given status, in insertion order.
func (s *SessionStore) ListByStatus(status types.SessionStatus) []types.TestSession {
	var out []types.TestSession
	for _, sess := range s.GetAll() {
		if sess.Status == status {
			out = append(out, sess)
		}
	}
	return out
}

// HasCompletedBaseline reports whether at least one baseline-type session has
// been completed. Gate for creating any other session type.
func (s *SessionStore) HasCompletedBaseline() bool {
	for _, sess := range s.GetAll() {
		if sess.Type == types.SessionBaseline && sess.Status == types.StatusCompleted {
			return true
		}
	}
	return false
}

// Save upserts a session by id: replaces the stored record if the id exists,
// appends otherwise. The full collection is persisted in one write.
func (s *SessionStore) Save(session types.TestSession) error {
	sessions := s.GetAll()
	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	logging.StoreDebug("Saving session %s (status=%s, total=%d)", session.ID, session.Status, len(sessions))
	return s.persist(keySessions, sessions)
}

// =============================================================================
// METRICS HISTORY
// =============================================================================

// GetHistory returns the per-metric history map. Absent or unreadable
// storage yields an empty map.
func (s *SessionStore) GetHistory() types.MetricsHistory {
	raw, ok, err := s.kv.Get(keyHistory)
	if err != nil || !ok {
		return types.MetricsHistory{}
	}
	var history types.MetricsHistory
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		logging.Get(logging.CategoryStore).Warn("Unreadable metrics history, treating as empty: %v", err)
		return types.MetricsHistory{}
	}
	if history == nil {
		history = types.MetricsHistory{}
	}
	return history
}

// AppendHistory pushes an entry onto the named metric's series, creating the
// series if absent. Entries are never mutated or removed here; ordering is
// insertion order.
func (s *SessionStore) AppendHistory(metric string, entry types.MetricsHistoryEntry) error {
	history := s.GetHistory()
	history[metric] = append(history[metric], entry)

	logging.StoreDebug("Appending history: metric=%s session=%s value=%.2f", metric, entry.SessionID, entry.Value)
	return s.persist(keyHistory, history)
}

// =============================================================================
// SHARED INFO
// =============================================================================

// GetSharedInfo returns the category map. Absent or unreadable storage
// yields an empty map.
func (s *SessionStore) GetSharedInfo() types.SharedInfo {
	raw, ok, err := s.kv.Get(keySharedInfo)
	if err != nil || !ok {
		return types.SharedInfo{}
	}
	var info types.SharedInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		logging.Get(logging.CategoryStore).Warn("Unreadable shared info, treating as empty: %v", err)
		return types.SharedInfo{}
	}
	if info == nil {
		info = types.SharedInfo{}
	}
	return info
}

// SaveSharedInfo shallow-merges fields into the named category's payload and
// stamps lastUpdated. New fields are added, existing fields overwritten,
// unmentioned fields retained.
func (s *SessionStore) SaveSharedInfo(category string, fields map[string]string) error {
	info := s.GetSharedInfo()

	existing := info[category]
	if existing.Fields == nil {
		existing.Fields = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		existing.Fields[k] = v
	}
	existing.LastUpdated = time.Now().UTC()
	info[category] = existing

	logging.StoreDebug("Saving shared info category=%s fields=%d", category, len(existing.Fields))
	return s.persist(keySharedInfo, info)
}

// persist marshals v and writes it under key, wrapping write failures.
func (s *SessionStore) persist(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &types.StorageWriteError{Key: key, Err: err}
	}
	if err := s.kv.Set(key, string(data)); err != nil {
		logging.Get(logging.CategoryStore).Error("Write failed for %s: %v", key, err)
		return &types.StorageWriteError{Key: key, Err: err}
	}
	return nil
}
