package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attune/internal/types"
)

// sessionCmd groups lifecycle operations
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage test sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a scheduled test session",
	Long: `Creates a session in the scheduled state.

Any type other than baseline requires at least one completed baseline session.

Example:
  attune session create "Week 3 recall check" --type recall`,
	Args: cobra.ExactArgs(1),
	RunE: createSession,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start [session-id]",
	Short: "Start a scheduled session (opens the remote conversation)",
	Args:  cobra.ExactArgs(1),
	RunE:  startSession,
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete [session-id]",
	Short: "Compute metrics from a transcript and complete the session",
	Long: `Reads a transcript (JSON array of messages) from --transcript, runs the
metrics pipeline for the session's type, merges the result into the session,
and appends history entries for each computed quality metric.`,
	Args: cobra.ExactArgs(1),
	RunE: completeSession,
}

var sessionFailCmd = &cobra.Command{
	Use:   "fail [session-id]",
	Short: "Mark an in-progress session as failed",
	Args:  cobra.ExactArgs(1),
	RunE:  failSession,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test sessions",
	RunE:  listSessions,
}

var (
	sessionType    string
	sessionDesc    string
	transcriptPath string
	failReason     string
	listStatus     string
)

func init() {
	sessionCreateCmd.Flags().StringVarP(&sessionType, "type", "t", "baseline", "Session type (baseline, progressive-info, recall, persistence, contextual)")
	sessionCreateCmd.Flags().StringVarP(&sessionDesc, "description", "d", "", "Session description")
	sessionCompleteCmd.Flags().StringVar(&transcriptPath, "transcript", "", "Path to transcript JSON (required)")
	sessionFailCmd.Flags().StringVar(&failReason, "reason", "", "Failure reason")
	sessionListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
}

func createSession(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.lifecycle.Create(args[0], sessionDesc, types.SessionType(sessionType))
	if err != nil {
		return err
	}

	logger.Info("Session created",
		zap.String("id", sess.ID),
		zap.String("type", string(sess.Type)))
	fmt.Printf("Created %s session %s\n", sess.Type, sess.ID)
	return nil
}

func startSession(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.lifecycle.Start(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session %s in progress (conversation %s)\n", sess.ID, sess.ConversationID)
	return nil
}

func completeSession(cmd *cobra.Command, args []string) error {
	if transcriptPath == "" {
		return fmt.Errorf("--transcript is required")
	}
	transcript, err := readTranscript(transcriptPath)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	sessionID := args[0]
	computed, err := a.pipeline.CalculateSessionMetrics(cmd.Context(), sessionID, transcript)
	if err != nil {
		return err
	}

	sess, err := a.lifecycle.Complete(sessionID, computed)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s completed\n", sess.ID)
	printMetrics(sess.Metrics)
	return nil
}

func failSession(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.lifecycle.Fail(args[0], failReason)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s marked failed\n", sess.ID)
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	var sessions []types.TestSession
	if listStatus != "" {
		sessions = a.store.ListByStatus(types.SessionStatus(listStatus))
	} else {
		sessions = a.store.GetAll()
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, sess := range sessions {
		fmt.Printf("%s  %-16s %-12s %s\n", sess.ID, sess.Type, sess.Status, sess.Title)
	}
	return nil
}

// readTranscript loads a JSON array of messages from disk.
func readTranscript(path string) ([]types.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var transcript []types.Message
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return transcript, nil
}

func printMetrics(m types.TestSessionMetrics) {
	if m.QuestionCount != nil {
		fmt.Printf("  questions:        %d\n", *m.QuestionCount)
	}
	if m.ResponseTime != nil {
		fmt.Printf("  responseTime:     %.0f ms\n", *m.ResponseTime)
	}
	if m.RecallRate != nil {
		fmt.Printf("  recallRate:       %d%%\n", *m.RecallRate)
	}
	if m.PersonalizationScore != nil {
		fmt.Printf("  personalization:  %.1f / 5\n", *m.PersonalizationScore)
	}
	if m.ContextualRelevance != nil {
		fmt.Printf("  relevance:        %d / 100\n", *m.ContextualRelevance)
	}
	if m.ConversationNaturalness != nil {
		fmt.Printf("  naturalness:      %d / 10\n", *m.ConversationNaturalness)
	}
	if m.CompletionRate != nil {
		fmt.Printf("  completionRate:   %d%%\n", *m.CompletionRate)
	}
}
