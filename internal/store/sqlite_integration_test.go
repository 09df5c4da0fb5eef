package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"attune/internal/types"
)

// TestMain ensures no goroutines leak during integration tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSQLiteKV_Integration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "attune.db")

	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	defer kv.Close()

	// Absent key
	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Set then get
	require.NoError(t, kv.Set("k", "v1"))
	v, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	// Upsert replaces
	require.NoError(t, kv.Set("k", "v2"))
	v, _, err = kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	// Delete is idempotent
	require.NoError(t, kv.Delete("k"))
	require.NoError(t, kv.Delete("k"))
	_, ok, err = kv.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "attune.db")

	kv, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)

	s := NewSessionStore(kv)
	sess := testSession("s1")
	require.NoError(t, s.Save(sess))
	require.NoError(t, s.AppendHistory(types.MetricRecallRate, types.MetricsHistoryEntry{
		Date: sess.CreatedAt, Value: 80, SessionID: "s1",
	}))
	require.NoError(t, kv.Close())

	// Reopen and read back
	kv2, err := NewSQLiteKV(dbPath)
	require.NoError(t, err)
	defer kv2.Close()

	s2 := NewSessionStore(kv2)
	got, ok := s2.GetByID("s1")
	require.True(t, ok)
	assert.Equal(t, sess.Title, got.Title)
	assert.Equal(t, sess.Type, got.Type)

	history := s2.GetHistory()
	require.Len(t, history[types.MetricRecallRate], 1)
	assert.Equal(t, 80.0, history[types.MetricRecallRate][0].Value)
}
