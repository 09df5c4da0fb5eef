// Package pipeline orchestrates metric computation for completed test
// sessions: it selects the heuristics that apply to the session type, runs
// them over the transcript, and produces the metrics record fed into the
// lifecycle's Complete transition.
package pipeline

import (
	"context"
	"errors"

	"attune/internal/logging"
	"attune/internal/metrics"
	"attune/internal/store"
	"attune/internal/types"
)

var errNoAnalyzer = errors.New("no analysis collaborator configured")

// Analyzer is the external sentiment/relevance collaborator. Only the
// contextual-relevance heuristic depends on it.
type Analyzer interface {
	AnalyzeConversation(ctx context.Context, conversationID string, transcript []types.Message) (*types.ConversationAnalysis, error)
}

// Pipeline computes session metrics. Constructed with its store and
// analyzer; no package-level instance.
type Pipeline struct {
	store    *store.SessionStore
	analyzer Analyzer
}

// New wires a Pipeline to its collaborators.
func New(s *store.SessionStore, analyzer Analyzer) *Pipeline {
	return &Pipeline{store: s, analyzer: analyzer}
}

// CalculateSessionMetrics derives the metrics record for a session from its
// accumulated transcript.
//
// Every session type gets the raw counters: questionCount (user messages),
// responseTime (mean AI response time), and completionRate, which is always
// 100 - the app reports full completion unconditionally, preserved as-is for
// history compatibility. On top of that, per type:
//
//	baseline         - raw counters only
//	progressive-info - contextualRelevance, conversationNaturalness
//	recall           - recallRate, personalizationScore
//	persistence      - recallRate, personalizationScore
//	contextual       - contextualRelevance, conversationNaturalness, personalizationScore
//
// A missing session or one without a conversation returns
// *types.InvalidSessionError before any computation. Analysis failures
// propagate as *types.AnalysisUnavailableError; no default score is
// substituted - the caller decides whether to retry or complete with what
// it has.
func (p *Pipeline) CalculateSessionMetrics(ctx context.Context, sessionID string, transcript []types.Message) (types.TestSessionMetrics, error) {
	timer := logging.StartTimer(logging.CategoryMetrics, "CalculateSessionMetrics")
	defer timer.Stop()

	sess, ok := p.store.GetByID(sessionID)
	if !ok {
		return types.TestSessionMetrics{}, &types.InvalidSessionError{ID: sessionID, Reason: "not found"}
	}
	if sess.ConversationID == "" {
		return types.TestSessionMetrics{}, &types.InvalidSessionError{ID: sessionID, Reason: "no conversation attached"}
	}

	m := types.TestSessionMetrics{
		QuestionCount: types.IntPtr(metrics.QuestionCount(transcript)),
		ResponseTime:  types.Float64Ptr(metrics.AverageResponseTime(transcript)),
	}

	switch sess.Type {
	case types.SessionBaseline:
		// Raw counters only; baseline establishes the reference point.

	case types.SessionProgressiveInfo:
		if err := p.applyRelevance(ctx, sess.ConversationID, transcript, &m); err != nil {
			return types.TestSessionMetrics{}, err
		}
		m.ConversationNaturalness = types.IntPtr(metrics.ConversationNaturalness(transcript))

	case types.SessionRecall, types.SessionPersistence:
		m.RecallRate = types.IntPtr(metrics.RecallRate(p.store.GetSharedInfo()))
		m.PersonalizationScore = types.Float64Ptr(metrics.PersonalizationScore(transcript))

	case types.SessionContextual:
		if err := p.applyRelevance(ctx, sess.ConversationID, transcript, &m); err != nil {
			return types.TestSessionMetrics{}, err
		}
		m.ConversationNaturalness = types.IntPtr(metrics.ConversationNaturalness(transcript))
		m.PersonalizationScore = types.Float64Ptr(metrics.PersonalizationScore(transcript))
	}

	m.CompletionRate = types.IntPtr(100)

	logging.MetricsDebug("Computed metrics for %s type=%s questions=%d", sessionID, sess.Type, *m.QuestionCount)
	return m, nil
}

// applyRelevance runs the external analysis and stores the relevance score.
func (p *Pipeline) applyRelevance(ctx context.Context, conversationID string, transcript []types.Message, m *types.TestSessionMetrics) error {
	if p.analyzer == nil {
		return &types.AnalysisUnavailableError{Err: errNoAnalyzer}
	}
	analysis, err := p.analyzer.AnalyzeConversation(ctx, conversationID, transcript)
	if err != nil {
		logging.Get(logging.CategoryMetrics).Error("Analysis failed for conversation %s: %v", conversationID, err)
		return &types.AnalysisUnavailableError{Err: err}
	}
	m.ContextualRelevance = types.IntPtr(metrics.ContextualRelevance(analysis.Details))
	return nil
}
