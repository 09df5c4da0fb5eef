// Package session implements the test-session lifecycle state machine:
// scheduled -> in-progress -> completed, with failed reachable from
// in-progress. Transitions never skip a state and are never reversed.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attune/internal/logging"
	"attune/internal/store"
	"attune/internal/types"
)

// ConversationCreator is the slice of the chat collaborator the lifecycle
// needs: opening a remote conversation when a session starts.
type ConversationCreator interface {
	CreateConversation(ctx context.Context, title string) (string, error)
}

// Lifecycle drives session state transitions. Construct one per process with
// its store and chat collaborator; there is no package-level instance.
//
// At most one in-flight lifecycle operation per session id is assumed.
// Concurrent Start/Complete calls on the same id can race on the persisted
// record; callers own serialization.
type Lifecycle struct {
	store *store.SessionStore
	chat  ConversationCreator
}

// NewLifecycle wires a Lifecycle to its collaborators.
func NewLifecycle(s *store.SessionStore, chat ConversationCreator) *Lifecycle {
	return &Lifecycle{store: s, chat: chat}
}

// Create constructs a scheduled session with zeroed counters and persists it.
//
// Any type other than baseline requires at least one completed baseline
// session in the store; violating that returns *types.PreconditionError and
// writes nothing.
func (l *Lifecycle) Create(title, description string, sessionType types.SessionType) (types.TestSession, error) {
	if !sessionType.Valid() {
		return types.TestSession{}, &types.PreconditionError{Reason: "unknown session type " + string(sessionType)}
	}

	if sessionType != types.SessionBaseline && !l.store.HasCompletedBaseline() {
		logging.Session("Refusing to create %s session: no completed baseline", sessionType)
		return types.TestSession{}, &types.PreconditionError{Reason: "a completed baseline session is required first"}
	}

	sess := types.TestSession{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Type:        sessionType,
		Status:      types.StatusScheduled,
		CreatedAt:   time.Now().UTC(),
		Metrics:     types.ZeroedMetrics(),
	}

	if err := l.store.Save(sess); err != nil {
		return types.TestSession{}, err
	}

	logging.Session("Created session %s type=%s", sess.ID, sess.Type)
	return sess, nil
}

// Start transitions a scheduled session to in-progress. It creates the
// remote conversation first; only once that succeeds is the session updated
// and persisted, so a failed conversation create leaves the session
// scheduled and retryable.
func (l *Lifecycle) Start(ctx context.Context, sessionID string) (types.TestSession, error) {
	sess, ok := l.store.GetByID(sessionID)
	if !ok {
		return types.TestSession{}, &types.InvalidSessionError{ID: sessionID, Reason: "not found"}
	}
	if sess.Status != types.StatusScheduled {
		return types.TestSession{}, &types.InvalidStateError{Op: "start", Status: sess.Status}
	}

	conversationID, err := l.chat.CreateConversation(ctx, sess.Title)
	if err != nil {
		logging.Get(logging.CategorySession).Error("Conversation create failed for %s: %v", sessionID, err)
		return types.TestSession{}, err
	}

	sess.ConversationID = conversationID
	sess.Status = types.StatusInProgress

	if err := l.store.Save(sess); err != nil {
		return types.TestSession{}, err
	}

	logging.Session("Started session %s conversation=%s", sess.ID, conversationID)
	return sess, nil
}

// Complete transitions an in-progress session to completed. The incoming
// metrics are merged into the stored record (non-nil fields overwrite,
// absent fields are retained), completedAt is stamped, and one history entry
// is appended per populated quality metric.
//
// A second Complete on the same session returns *types.InvalidStateError;
// the transition is not re-enterable.
func (l *Lifecycle) Complete(sessionID string, computed types.TestSessionMetrics) (types.TestSession, error) {
	sess, ok := l.store.GetByID(sessionID)
	if !ok {
		return types.TestSession{}, &types.InvalidSessionError{ID: sessionID, Reason: "not found"}
	}
	if sess.Status != types.StatusInProgress {
		return types.TestSession{}, &types.InvalidStateError{Op: "complete", Status: sess.Status}
	}

	sess.Metrics.Merge(computed)
	now := time.Now().UTC()
	sess.CompletedAt = &now
	sess.Status = types.StatusCompleted

	if err := l.store.Save(sess); err != nil {
		return types.TestSession{}, err
	}

	if err := l.appendHistory(sess); err != nil {
		// The session record is already durable; only the history append
		// failed. Surface it so the caller can retry the append.
		return sess, err
	}

	logging.Session("Completed session %s", sess.ID)
	return sess, nil
}

// Fail transitions an in-progress session to failed, recording the reason.
// Terminal; no metrics are computed and no history is appended.
func (l *Lifecycle) Fail(sessionID, reason string) (types.TestSession, error) {
	sess, ok := l.store.GetByID(sessionID)
	if !ok {
		return types.TestSession{}, &types.InvalidSessionError{ID: sessionID, Reason: "not found"}
	}
	if sess.Status != types.StatusInProgress {
		return types.TestSession{}, &types.InvalidStateError{Op: "fail", Status: sess.Status}
	}

	sess.Status = types.StatusFailed
	sess.FailureReason = reason

	if err := l.store.Save(sess); err != nil {
		return types.TestSession{}, err
	}

	logging.Session("Failed session %s: %s", sess.ID, reason)
	return sess, nil
}

// appendHistory records one entry per populated quality metric. History
// order matches completion order.
func (l *Lifecycle) appendHistory(sess types.TestSession) error {
	date := *sess.CompletedAt

	type point struct {
		name  string
		value float64
		set   bool
	}
	points := []point{
		{types.MetricPersonalizationScore, valueOfFloat(sess.Metrics.PersonalizationScore), sess.Metrics.PersonalizationScore != nil},
		{types.MetricRecallRate, valueOfInt(sess.Metrics.RecallRate), sess.Metrics.RecallRate != nil},
		{types.MetricContextualRelevance, valueOfInt(sess.Metrics.ContextualRelevance), sess.Metrics.ContextualRelevance != nil},
		{types.MetricConversationNaturalness, valueOfInt(sess.Metrics.ConversationNaturalness), sess.Metrics.ConversationNaturalness != nil},
	}

	for _, p := range points {
		if !p.set {
			continue
		}
		entry := types.MetricsHistoryEntry{Date: date, Value: p.value, SessionID: sess.ID}
		if err := l.store.AppendHistory(p.name, entry); err != nil {
			return err
		}
	}
	return nil
}

func valueOfFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func valueOfInt(p *int) float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}
