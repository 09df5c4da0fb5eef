// attune - evaluation core for an AI companion.
//
// Drives structured test sessions against the companion, scores the
// resulting transcripts with deterministic heuristics, and tracks per-metric
// history over time.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"attune/internal/chat"
	"attune/internal/config"
	"attune/internal/logging"
	"attune/internal/pipeline"
	"attune/internal/session"
	"attune/internal/store"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "attune",
	Short: "attune - AI companion evaluation sessions",
	Long: `attune runs structured test sessions against an AI companion and scores
the resulting conversations.

Session types:
  baseline          raw counters only; must be completed before any other type
  progressive-info  contextual relevance + naturalness
  recall            recall rate + personalization
  persistence       recall rate + personalization
  contextual        relevance + naturalness + personalization

Completed sessions append to an append-only per-metric history, which the
history command summarizes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("File logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// app bundles the wired components behind each subcommand.
type app struct {
	cfg       *config.Config
	kv        store.KV
	store     *store.SessionStore
	lifecycle *session.Lifecycle
	pipeline  *pipeline.Pipeline
	chat      chat.Service
}

// newApp loads config and wires the store, chat collaborator, lifecycle, and
// pipeline. withChat controls whether a Gemini client is required; read-only
// commands (list, history, info) work without an API key.
func newApp(cmd *cobra.Command, withChat bool) (*app, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".attune", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	kv, err := store.NewSQLiteKV(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	sessionStore := store.NewSessionStore(kv)

	a := &app{
		cfg:   cfg,
		kv:    kv,
		store: sessionStore,
	}

	if withChat {
		gemini, err := chat.NewGemini(cmd.Context(), cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			kv.Close()
			return nil, err
		}
		a.chat = gemini
		a.lifecycle = session.NewLifecycle(sessionStore, gemini)
		a.pipeline = pipeline.New(sessionStore, gemini)
	} else {
		a.lifecycle = session.NewLifecycle(sessionStore, nil)
		a.pipeline = pipeline.New(sessionStore, nil)
	}

	return a, nil
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.attune/config.yaml)")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionFailCmd)
	sessionCmd.AddCommand(sessionListCmd)

	infoCmd.AddCommand(infoSetCmd)
	infoCmd.AddCommand(infoShowCmd)

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(infoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
