package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attune/internal/types"
)

// runCmd drives a whole session end to end: create, start, exchange the
// given prompts with the companion, compute metrics, complete.
var runCmd = &cobra.Command{
	Use:   "run [title] [prompt]...",
	Short: "Run a full test session end to end",
	Long: `Creates and starts a session, sends each prompt to the companion in
order, then computes metrics over the accumulated transcript and completes
the session.

Example:
  attune run "Week 3 recall" --type recall \
    "What instrument do I play?" \
    "What challenge did I mention last week?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&sessionType, "type", "t", "baseline", "Session type")
	runCmd.Flags().StringVarP(&sessionDesc, "description", "d", "", "Session description")
}

func runSession(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	title, prompts := args[0], args[1:]

	sess, err := a.lifecycle.Create(title, sessionDesc, types.SessionType(sessionType))
	if err != nil {
		return err
	}
	sess, err = a.lifecycle.Start(cmd.Context(), sess.ID)
	if err != nil {
		return err
	}
	logger.Info("Session running",
		zap.String("id", sess.ID),
		zap.String("conversation", sess.ConversationID),
		zap.Int("prompts", len(prompts)))

	var transcript []types.Message
	for _, prompt := range prompts {
		transcript = append(transcript, types.Message{
			ID:        uuid.NewString(),
			Text:      prompt,
			Timestamp: time.Now().UTC(),
			IsUser:    true,
		})

		reply, err := a.chat.SendMessage(cmd.Context(), sess.ConversationID, prompt)
		if err != nil {
			// The conversation is broken; record the failure instead of
			// leaving the session in-progress forever.
			if _, failErr := a.lifecycle.Fail(sess.ID, err.Error()); failErr != nil {
				logger.Warn("Could not mark session failed", zap.Error(failErr))
			}
			return fmt.Errorf("conversation failed: %w", err)
		}
		transcript = append(transcript, reply)

		fmt.Printf("> %s\n%s\n\n", prompt, reply.Text)
	}

	computed, err := a.pipeline.CalculateSessionMetrics(cmd.Context(), sess.ID, transcript)
	if err != nil {
		return err
	}
	sess, err = a.lifecycle.Complete(sess.ID, computed)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s completed\n", sess.ID)
	printMetrics(sess.Metrics)
	return nil
}
