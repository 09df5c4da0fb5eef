// Package chat provides the remote AI collaborators the evaluation core
// depends on: conversation creation and messaging, and transcript analysis.
// The core consumes the Service and Analyzer interfaces only; the Gemini
// implementation lives in gemini.go.
package chat

import (
	"context"

	"attune/internal/types"
)

// Service is the conversation-side collaborator contract.
type Service interface {
	// CreateConversation opens a remote conversation and returns its id.
	CreateConversation(ctx context.Context, title string) (string, error)
	// SendMessage sends a user message and returns the assistant reply, with
	// response-time metadata stamped.
	SendMessage(ctx context.Context, conversationID, text string) (types.Message, error)
}

// Analyzer is the sentiment/relevance analysis collaborator contract.
type Analyzer interface {
	AnalyzeConversation(ctx context.Context, conversationID string, transcript []types.Message) (*types.ConversationAnalysis, error)
}
