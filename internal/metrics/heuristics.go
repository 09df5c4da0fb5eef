// Package metrics implements the deterministic scoring heuristics applied to
// test-session transcripts. Every function here is total and side-effect
// free: no storage access, no network, no panics on empty input.
//
// These are proxy heuristics, not linguistic analysis. The breakpoints and
// formulas are fixed for compatibility with previously recorded history -
// changing them would make old and new history entries incomparable.
package metrics

import (
	"math"

	"attune/internal/types"
)

// AverageResponseTime returns the mean of the response-time metadata over
// AI-authored messages, in milliseconds. Returns 0 if the transcript has no
// AI messages.
func AverageResponseTime(transcript []types.Message) float64 {
	var sum float64
	var n int
	for _, msg := range transcript {
		if msg.IsUser {
			continue
		}
		n++
		if msg.Metadata != nil {
			sum += msg.Metadata.ResponseTime
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ContextualRelevance averages the per-message scores of an external
// analysis result, scales to a percentage, rounds, and clamps to 100.
// An empty analysis yields 0.
func ContextualRelevance(details []types.AnalysisDetail) int {
	if len(details) == 0 {
		return 0
	}
	var sum float64
	for _, d := range details {
		sum += d.Score
	}
	score := int(math.Round(sum / float64(len(details)) * 100))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ConversationNaturalness maps the mean AI-message length to a 1-10 score.
// Fewer than 3 AI messages yields the neutral value 5.
//
// Breakpoints (mean character count): <50 -> 3, <100 -> 5, <300 -> 8,
// <500 -> 7, else -> 5.
func ConversationNaturalness(transcript []types.Message) int {
	var totalLen int
	var n int
	for _, msg := range transcript {
		if msg.IsUser {
			continue
		}
		n++
		totalLen += len(msg.Text)
	}
	if n < 3 {
		return 5
	}

	mean := float64(totalLen) / float64(n)
	switch {
	case mean < 50:
		return 3
	case mean < 100:
		return 5
	case mean < 300:
		return 8
	case mean < 500:
		return 7
	default:
		return 5
	}
}

// RecallRate scores how much shared information the companion has available
// to recall. Zero categories yields 0; otherwise 70 plus 5 per category,
// capped at 100.
func RecallRate(info types.SharedInfo) int {
	count := len(info)
	if count == 0 {
		return 0
	}
	rate := 70 + 5*count
	if rate > 100 {
		rate = 100
	}
	return rate
}

// PersonalizationScore scores conversation depth on a 0-5 scale from the AI
// message count. Fewer than 3 AI messages yields the floor value 3;
// otherwise 3 plus a tenth of the AI message count, capped at 5.
func PersonalizationScore(transcript []types.Message) float64 {
	var n int
	for _, msg := range transcript {
		if !msg.IsUser {
			n++
		}
	}
	if n < 3 {
		return 3
	}
	score := 3 + float64(n)/10
	if score > 5 {
		score = 5
	}
	return score
}

// QuestionCount returns the number of user-authored messages in the transcript.
func QuestionCount(transcript []types.Message) int {
	var n int
	for _, msg := range transcript {
		if msg.IsUser {
			n++
		}
	}
	return n
}
