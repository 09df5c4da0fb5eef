// Package types provides shared type definitions used across attune packages.
// This package exists to break import cycles between store, session, and pipeline.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import "time"

// =============================================================================
// SESSION TYPES
// =============================================================================

// SessionType identifies which evaluation a test session runs.
type SessionType string

const (
	SessionBaseline        SessionType = "baseline"
	SessionProgressiveInfo SessionType = "progressive-info"
	SessionRecall          SessionType = "recall"
	SessionPersistence     SessionType = "persistence"
	SessionContextual      SessionType = "contextual"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionBaseline, SessionProgressiveInfo, SessionRecall, SessionPersistence, SessionContextual:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a test session.
//
// Transitions: scheduled -> in-progress -> completed, with failed reachable
// from in-progress. No transition skips a state and none is reversible.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// TestSession is one structured evaluation run against the remote AI.
type TestSession struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        SessionType   `json:"type"`
	Status      SessionStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// ConversationID is set when the session transitions to in-progress and
	// is immutable afterwards.
	ConversationID string `json:"conversationId,omitempty"`

	// FailureReason is set when the session transitions to failed.
	FailureReason string `json:"failureReason,omitempty"`

	Metrics TestSessionMetrics `json:"metrics"`
}

// =============================================================================
// METRICS
// =============================================================================

// TestSessionMetrics is a sparse record of quality metrics. Fields are
// pointers so a session type that never computes a metric leaves it nil
// rather than zero; the dispatch in the pipeline package populates only the
// fields that apply to the session type.
type TestSessionMetrics struct {
	PersonalizationScore    *float64 `json:"personalizationScore,omitempty"`    // [0,5]
	RecallRate              *int     `json:"recallRate,omitempty"`              // percent [0,100]
	ContextualRelevance     *int     `json:"contextualRelevance,omitempty"`     // [0,100]
	ConversationNaturalness *int     `json:"conversationNaturalness,omitempty"` // [1,10]
	ResponseTime            *float64 `json:"responseTime,omitempty"`            // milliseconds, mean
	Accuracy                *float64 `json:"accuracy,omitempty"`
	QuestionCount           *int     `json:"questionCount,omitempty"`
	CompletionRate          *int     `json:"completionRate,omitempty"` // percent
}

// Merge overlays non-nil fields of other onto m. Fields absent from other
// keep their existing value, so a second merge with the same input is a
// no-op in effect.
func (m *TestSessionMetrics) Merge(other TestSessionMetrics) {
	if other.PersonalizationScore != nil {
		m.PersonalizationScore = other.PersonalizationScore
	}
	if other.RecallRate != nil {
		m.RecallRate = other.RecallRate
	}
	if other.ContextualRelevance != nil {
		m.ContextualRelevance = other.ContextualRelevance
	}
	if other.ConversationNaturalness != nil {
		m.ConversationNaturalness = other.ConversationNaturalness
	}
	if other.ResponseTime != nil {
		m.ResponseTime = other.ResponseTime
	}
	if other.Accuracy != nil {
		m.Accuracy = other.Accuracy
	}
	if other.QuestionCount != nil {
		m.QuestionCount = other.QuestionCount
	}
	if other.CompletionRate != nil {
		m.CompletionRate = other.CompletionRate
	}
}

// ZeroedMetrics returns the metrics record a freshly created session carries:
// counters present but zero, scores absent.
func ZeroedMetrics() TestSessionMetrics {
	qc := 0
	cr := 0
	return TestSessionMetrics{QuestionCount: &qc, CompletionRate: &cr}
}

// Float64Ptr returns a pointer to v. Convenience for building sparse metric records.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// MetricsHistoryEntry is one point in a per-metric time series.
type MetricsHistoryEntry struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	SessionID string    `json:"sessionId"`
}

// MetricsHistory maps metric name to its append-only, insertion-ordered series.
type MetricsHistory map[string][]MetricsHistoryEntry

// Metric names used as history keys.
const (
	MetricPersonalizationScore    = "personalizationScore"
	MetricRecallRate              = "recallRate"
	MetricContextualRelevance     = "contextualRelevance"
	MetricConversationNaturalness = "conversationNaturalness"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Message is one entry of a conversation transcript. This mirrors the shape
// the chat layer produces; the heuristics only depend on IsUser, Text, and
// the optional response time metadata.
type Message struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
	IsUser    bool             `json:"isUser"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries optional per-message measurements.
type MessageMetadata struct {
	ResponseTime float64 `json:"responseTime,omitempty"` // milliseconds
}

// ConversationAnalysis is the result of the external analysis collaborator.
type ConversationAnalysis struct {
	OverallSentiment string           `json:"overallSentiment"`
	Details          []AnalysisDetail `json:"details"`
}

// AnalysisDetail is a per-message relevance score in [0,1].
type AnalysisDetail struct {
	Score float64 `json:"score"`
}

// =============================================================================
// SHARED INFO
// =============================================================================

// SharedInfo maps category name to the user-provided payload for that
// category. Payloads are written by UI flows; this core only reads the
// category count (recall heuristic) and passes payloads through.
type SharedInfo map[string]SharedInfoCategory

// SharedInfoCategory is an arbitrary key/value payload plus its update stamp.
type SharedInfoCategory struct {
	Fields      map[string]string `json:"fields"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// Shared info category names recognized by the UI layer.
const (
	SharedInfoBasic      = "basic"
	SharedInfoSpiritual  = "spiritual"
	SharedInfoChallenges = "challenges"
	SharedInfoInterests  = "interests"
)
