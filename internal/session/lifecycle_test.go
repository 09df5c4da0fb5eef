package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attune/internal/store"
	"attune/internal/types"
)

// fakeChat is a ConversationCreator returning canned ids or a failure.
type fakeChat struct {
	nextID  int
	failErr error
}

func (f *fakeChat) CreateConversation(ctx context.Context, title string) (string, error) {
	if f.failErr != nil {
		return "", f.failErr
	}
	f.nextID++
	return fmt.Sprintf("conv-%d", f.nextID), nil
}

func newTestLifecycle(t *testing.T) (*Lifecycle, *store.SessionStore, *fakeChat) {
	t.Helper()
	s := store.NewSessionStore(store.NewMemKV())
	chat := &fakeChat{}
	return NewLifecycle(s, chat), s, chat
}

// completeBaseline runs one baseline session through the full lifecycle.
func completeBaseline(t *testing.T, l *Lifecycle) types.TestSession {
	t.Helper()
	sess, err := l.Create("Baseline", "reference run", types.SessionBaseline)
	require.NoError(t, err)
	_, err = l.Start(context.Background(), sess.ID)
	require.NoError(t, err)
	done, err := l.Complete(sess.ID, types.TestSessionMetrics{
		ResponseTime: types.Float64Ptr(250),
	})
	require.NoError(t, err)
	return done
}

func TestCreate_BaselinePrecondition(t *testing.T) {
	l, s, _ := newTestLifecycle(t)

	// Non-baseline before any completed baseline is refused
	_, err := l.Create("Recall", "", types.SessionRecall)
	var precond *types.PreconditionError
	require.ErrorAs(t, err, &precond)

	// Nothing was written
	assert.Empty(t, s.GetAll())

	// Baseline itself is always allowed
	sess, err := l.Create("Baseline", "", types.SessionBaseline)
	require.NoError(t, err)
	assert.Equal(t, types.StatusScheduled, sess.Status)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
	require.NotNil(t, sess.Metrics.QuestionCount)
	assert.Equal(t, 0, *sess.Metrics.QuestionCount)

	// A merely scheduled baseline still does not unlock other types
	_, err = l.Create("Recall", "", types.SessionRecall)
	require.ErrorAs(t, err, &precond)
}

func TestCreate_UnlockedAfterCompletedBaseline(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	completeBaseline(t, l)

	sess, err := l.Create("Recall", "", types.SessionRecall)
	require.NoError(t, err)
	assert.Equal(t, types.SessionRecall, sess.Type)
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	_, err := l.Create("Oops", "", types.SessionType("mystery"))
	var precond *types.PreconditionError
	require.ErrorAs(t, err, &precond)
}

func TestStart_Transitions(t *testing.T) {
	l, s, _ := newTestLifecycle(t)

	sess, err := l.Create("Baseline", "", types.SessionBaseline)
	require.NoError(t, err)

	started, err := l.Start(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, started.Status)
	assert.Equal(t, "conv-1", started.ConversationID)

	// Persisted
	stored, ok := s.GetByID(sess.ID)
	require.True(t, ok)
	assert.Equal(t, types.StatusInProgress, stored.Status)

	// Starting again is a state violation
	_, err = l.Start(context.Background(), sess.ID)
	var invalid *types.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.StatusInProgress, invalid.Status)
}

func TestStart_MissingSession(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	_, err := l.Start(context.Background(), "nope")
	var invalid *types.InvalidSessionError
	require.ErrorAs(t, err, &invalid)
}

func TestStart_ConversationFailureLeavesSessionScheduled(t *testing.T) {
	l, s, chat := newTestLifecycle(t)

	sess, err := l.Create("Baseline", "", types.SessionBaseline)
	require.NoError(t, err)

	chat.failErr = errors.New("network down")
	_, err = l.Start(context.Background(), sess.ID)
	require.Error(t, err)

	stored, ok := s.GetByID(sess.ID)
	require.True(t, ok)
	assert.Equal(t, types.StatusScheduled, stored.Status)
	assert.Empty(t, stored.ConversationID)

	// Retry succeeds once the collaborator recovers
	chat.failErr = nil
	started, err := l.Start(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, started.Status)
}

func TestComplete_MergesAndStamps(t *testing.T) {
	l, _, _ := newTestLifecycle(t)

	sess, err := l.Create("Baseline", "", types.SessionBaseline)
	require.NoError(t, err)
	_, err = l.Start(context.Background(), sess.ID)
	require.NoError(t, err)

	done, err := l.Complete(sess.ID, types.TestSessionMetrics{
		RecallRate:    types.IntPtr(80),
		QuestionCount: types.IntPtr(5),
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.Metrics.RecallRate)
	assert.Equal(t, 80, *done.Metrics.RecallRate)
	assert.Equal(t, 5, *done.Metrics.QuestionCount)
	// Fields absent from the incoming record are retained
	require.NotNil(t, done.Metrics.CompletionRate)
	assert.Equal(t, 0, *done.Metrics.CompletionRate)

	// Not re-enterable
	_, err = l.Complete(sess.ID, types.TestSessionMetrics{})
	var invalid *types.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.StatusCompleted, invalid.Status)

	// Completing a merely scheduled session is also a violation
	sess2, err := l.Create("Recall", "", types.SessionRecall)
	require.NoError(t, err)
	_, err = l.Complete(sess2.ID, types.TestSessionMetrics{})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.StatusScheduled, invalid.Status)
}

func TestComplete_AppendsHistoryPerPopulatedMetric(t *testing.T) {
	l, s, _ := newTestLifecycle(t)
	completeBaseline(t, l)

	sess, err := l.Create("Recall", "", types.SessionRecall)
	require.NoError(t, err)
	_, err = l.Start(context.Background(), sess.ID)
	require.NoError(t, err)

	done, err := l.Complete(sess.ID, types.TestSessionMetrics{
		RecallRate:           types.IntPtr(85),
		PersonalizationScore: types.Float64Ptr(4.5),
		ResponseTime:         types.Float64Ptr(321), // raw counter, no history series
	})
	require.NoError(t, err)

	history := s.GetHistory()

	require.Len(t, history[types.MetricRecallRate], 1)
	assert.Equal(t, 85.0, history[types.MetricRecallRate][0].Value)
	assert.Equal(t, done.ID, history[types.MetricRecallRate][0].SessionID)
	assert.Equal(t, *done.CompletedAt, history[types.MetricRecallRate][0].Date)

	require.Len(t, history[types.MetricPersonalizationScore], 1)
	assert.Equal(t, 4.5, history[types.MetricPersonalizationScore][0].Value)

	// Metrics the session never computed get no entry
	assert.Empty(t, history[types.MetricContextualRelevance])
	assert.Empty(t, history[types.MetricConversationNaturalness])
}

func TestFail_Transitions(t *testing.T) {
	l, s, _ := newTestLifecycle(t)

	sess, err := l.Create("Baseline", "", types.SessionBaseline)
	require.NoError(t, err)

	// Only in-progress sessions can fail
	_, err = l.Fail(sess.ID, "gave up")
	var invalid *types.InvalidStateError
	require.ErrorAs(t, err, &invalid)

	_, err = l.Start(context.Background(), sess.ID)
	require.NoError(t, err)

	failed, err := l.Fail(sess.ID, "remote timeout")
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, failed.Status)
	assert.Equal(t, "remote timeout", failed.FailureReason)

	// Terminal: no further transitions
	_, err = l.Complete(sess.ID, types.TestSessionMetrics{})
	require.ErrorAs(t, err, &invalid)

	// No history for a failed session
	assert.Empty(t, s.GetHistory())
}
