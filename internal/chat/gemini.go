package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"attune/internal/logging"
	"attune/internal/types"
)

// =============================================================================
// GEMINI CHAT + ANALYSIS COLLABORATOR
// =============================================================================

// Gemini implements Service and Analyzer against the Gemini API.
//
// Conversation ids are minted locally; per-conversation history is kept in
// memory and replayed on each turn. The evaluation core only ever needs the
// conversation id and the reply messages, so no remote thread state is
// required.
type Gemini struct {
	client *genai.Client
	model  string

	mu            sync.Mutex
	conversations map[string][]*genai.Content
}

// NewGemini creates a Gemini-backed collaborator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		client:        client,
		model:         model,
		conversations: make(map[string][]*genai.Content),
	}, nil
}

// CreateConversation registers a new conversation and returns its id.
func (g *Gemini) CreateConversation(ctx context.Context, title string) (string, error) {
	id := uuid.NewString()

	g.mu.Lock()
	g.conversations[id] = nil
	g.mu.Unlock()

	logging.Chat("Created conversation %s (%s)", id, title)
	return id, nil
}

// SendMessage sends a user turn and returns the assistant reply. The reply
// carries the wall-clock response time in its metadata, which is what the
// response-time heuristic averages later.
func (g *Gemini) SendMessage(ctx context.Context, conversationID, text string) (types.Message, error) {
	g.mu.Lock()
	history, ok := g.conversations[conversationID]
	g.mu.Unlock()
	if !ok {
		return types.Message{}, fmt.Errorf("unknown conversation %q", conversationID)
	}

	contents := append(append([]*genai.Content{}, history...),
		genai.NewContentFromText(text, genai.RoleUser))

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("GenerateContent failed for %s: %v", conversationID, err)
		return types.Message{}, fmt.Errorf("send message: %w", err)
	}
	elapsed := time.Since(start)

	reply := resp.Text()
	if reply == "" {
		return types.Message{}, fmt.Errorf("send message: empty reply")
	}

	g.mu.Lock()
	g.conversations[conversationID] = append(contents,
		genai.NewContentFromText(reply, genai.RoleModel))
	g.mu.Unlock()

	logging.ChatDebug("Reply on %s in %v (%d chars)", conversationID, elapsed, len(reply))

	return types.Message{
		ID:        uuid.NewString(),
		Text:      reply,
		Timestamp: time.Now().UTC(),
		IsUser:    false,
		Metadata:  &types.MessageMetadata{ResponseTime: float64(elapsed.Milliseconds())},
	}, nil
}

// analysisResult mirrors the JSON shape requested from the model.
type analysisResult struct {
	OverallSentiment string `json:"overall_sentiment"`
	Details          []struct {
		Score float64 `json:"score"`
	} `json:"details"`
}

const analysisPrompt = `You are rating an AI companion conversation for contextual relevance.
For each AI message in the transcript below, rate from 0.0 to 1.0 how relevant
the message is to what the user said before it.
Respond with JSON only: {"overall_sentiment": "<one word>", "details": [{"score": <0..1>}, ...]}
with exactly one details entry per AI message, in order.`

// AnalyzeConversation asks the model to score each AI message's relevance.
// Scores outside [0,1] are clamped; a malformed or empty response is an error
// (the pipeline wraps it as AnalysisUnavailableError, never substituting a
// default score).
func (g *Gemini) AnalyzeConversation(ctx context.Context, conversationID string, transcript []types.Message) (*types.ConversationAnalysis, error) {
	var sb strings.Builder
	sb.WriteString(analysisPrompt)
	sb.WriteString("\n\n[TRANSCRIPT]\n")
	for _, msg := range transcript {
		role := "AI"
		if msg.IsUser {
			role = "USER"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Text)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Analysis call failed for %s: %v", conversationID, err)
		return nil, fmt.Errorf("analyze conversation: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("analyze conversation: empty response")
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("analyze conversation: invalid JSON from model: %w", err)
	}

	analysis := &types.ConversationAnalysis{
		OverallSentiment: result.OverallSentiment,
		Details:          make([]types.AnalysisDetail, 0, len(result.Details)),
	}
	for _, d := range result.Details {
		score := d.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		analysis.Details = append(analysis.Details, types.AnalysisDetail{Score: score})
	}

	logging.ChatDebug("Analysis for %s: %d scores, sentiment=%s", conversationID, len(analysis.Details), analysis.OverallSentiment)
	return analysis, nil
}
