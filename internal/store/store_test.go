package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"attune/internal/types"
)

func testSession(id string) types.TestSession {
	return types.TestSession{
		ID:        id,
		Title:     "Baseline run",
		Type:      types.SessionBaseline,
		Status:    types.StatusScheduled,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metrics:   types.ZeroedMetrics(),
	}
}

func TestGetAll_ColdStart(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	if got := s.GetAll(); len(got) != 0 {
		t.Errorf("Expected empty collection on cold start, got %d", len(got))
	}
	if got := s.GetHistory(); len(got) != 0 {
		t.Errorf("Expected empty history on cold start, got %d", len(got))
	}
	if got := s.GetSharedInfo(); len(got) != 0 {
		t.Errorf("Expected empty shared info on cold start, got %d", len(got))
	}
}

func TestGetAll_MalformedPayload(t *testing.T) {
	kv := NewMemKV()
	// Corrupt payloads degrade to empty, never error
	kv.Set(keySessions, "{not json")
	kv.Set(keyHistory, "[]")    // wrong shape for a map
	kv.Set(keySharedInfo, "42") // wrong shape entirely

	s := NewSessionStore(kv)
	if got := s.GetAll(); got != nil {
		t.Errorf("Expected nil sessions for malformed payload, got %v", got)
	}
	if got := s.GetHistory(); len(got) != 0 {
		t.Errorf("Expected empty history for malformed payload, got %v", got)
	}
	if got := s.GetSharedInfo(); len(got) != 0 {
		t.Errorf("Expected empty shared info for malformed payload, got %v", got)
	}
}

func TestSave_Upsert(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	if err := s.Save(testSession("s1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(testSession("s2")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Replace s1 by id
	updated := testSession("s1")
	updated.Status = types.StatusInProgress
	updated.ConversationID = "conv-1"
	if err := s.Save(updated); err != nil {
		t.Fatalf("Save (replace) failed: %v", err)
	}

	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 sessions after upsert, got %d", len(all))
	}
	if all[0].ID != "s1" || all[0].Status != types.StatusInProgress {
		t.Errorf("Expected s1 replaced in place, got %+v", all[0])
	}
	if all[1].ID != "s2" {
		t.Errorf("Expected s2 appended second, got %+v", all[1])
	}
}

func TestSave_RoundTrip(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	completedAt := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	sess := testSession("s1")
	sess.Status = types.StatusCompleted
	sess.ConversationID = "conv-1"
	sess.CompletedAt = &completedAt
	sess.Metrics = types.TestSessionMetrics{
		RecallRate:     types.IntPtr(80),
		ResponseTime:   types.Float64Ptr(123.5),
		QuestionCount:  types.IntPtr(5),
		CompletionRate: types.IntPtr(100),
	}

	if err := s.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok := s.GetByID("s1")
	if !ok {
		t.Fatal("GetByID did not find saved session")
	}
	if diff := cmp.Diff(sess, got); diff != "" {
		t.Errorf("Round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	s := NewSessionStore(NewMemKV())
	if _, ok := s.GetByID("missing"); ok {
		t.Error("Expected not-found for missing id")
	}
}

func TestListByTypeAndStatus(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	base := testSession("s1")
	base.Status = types.StatusCompleted
	recall := testSession("s2")
	recall.Type = types.SessionRecall

	if err := s.Save(base); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(recall); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := s.ListByType(types.SessionRecall); len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("ListByType(recall) = %v", got)
	}
	if got := s.ListByStatus(types.StatusCompleted); len(got) != 1 || got[0].ID != "s1" {
		t.Errorf("ListByStatus(completed) = %v", got)
	}

	if !s.HasCompletedBaseline() {
		t.Error("Expected HasCompletedBaseline true")
	}
}

func TestHasCompletedBaseline_RequiresBothTypeAndStatus(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	// A scheduled baseline does not satisfy the gate
	if err := s.Save(testSession("s1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.HasCompletedBaseline() {
		t.Error("Scheduled baseline must not count as completed")
	}

	// Neither does a completed non-baseline
	other := testSession("s2")
	other.Type = types.SessionRecall
	other.Status = types.StatusCompleted
	if err := s.Save(other); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.HasCompletedBaseline() {
		t.Error("Completed recall session must not count as baseline")
	}
}

func TestAppendHistory_Order(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	date := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	for i, v := range []float64{70, 85, 80} {
		entry := types.MetricsHistoryEntry{Date: date.Add(time.Duration(i) * time.Hour), Value: v, SessionID: "s1"}
		if err := s.AppendHistory(types.MetricRecallRate, entry); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	history := s.GetHistory()
	series := history[types.MetricRecallRate]
	if len(series) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(series))
	}
	// Insertion order, not sorted by value
	if series[0].Value != 70 || series[1].Value != 85 || series[2].Value != 80 {
		t.Errorf("History order wrong: %v", series)
	}
}

func TestSaveSharedInfo_Merge(t *testing.T) {
	s := NewSessionStore(NewMemKV())

	if err := s.SaveSharedInfo(types.SharedInfoBasic, map[string]string{"name": "Ada", "city": "London"}); err != nil {
		t.Fatalf("SaveSharedInfo failed: %v", err)
	}
	// Merge: overwrite one field, keep the other
	if err := s.SaveSharedInfo(types.SharedInfoBasic, map[string]string{"city": "Paris"}); err != nil {
		t.Fatalf("SaveSharedInfo failed: %v", err)
	}

	info := s.GetSharedInfo()
	cat, ok := info[types.SharedInfoBasic]
	if !ok {
		t.Fatal("Category missing after save")
	}
	if cat.Fields["name"] != "Ada" {
		t.Errorf("Expected retained field name=Ada, got %q", cat.Fields["name"])
	}
	if cat.Fields["city"] != "Paris" {
		t.Errorf("Expected overwritten field city=Paris, got %q", cat.Fields["city"])
	}
	if cat.LastUpdated.IsZero() {
		t.Error("Expected lastUpdated stamped")
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	kv := NewMemKV()
	kv.FailWrites = true
	s := NewSessionStore(kv)

	err := s.Save(testSession("s1"))
	if err == nil {
		t.Fatal("Expected write error")
	}
	var writeErr *types.StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected *types.StorageWriteError, got %T", err)
	}
	if writeErr.Key != keySessions {
		t.Errorf("Expected key %q in error, got %q", keySessions, writeErr.Key)
	}

	if err := s.AppendHistory(types.MetricRecallRate, types.MetricsHistoryEntry{}); err == nil {
		t.Error("Expected AppendHistory write error")
	}
	if err := s.SaveSharedInfo("basic", map[string]string{"a": "b"}); err == nil {
		t.Error("Expected SaveSharedInfo write error")
	}
}
