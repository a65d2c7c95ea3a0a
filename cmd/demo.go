package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/capture"
	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
	"github.com/adrianngzz/bisonbytes25-v1/usecase"
)

var defaultDemoLines = []string{
	"I had a great day at work",
	"I'm feeling really happy and excited about the weekend",
}

func newDemoCommand() *cobra.Command {
	var (
		lines []string
		gap   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted conversation through the engine and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runDemo(cmd.Context(), cmd.OutOrStdout(), lines, gap, cfg.FollowUpDelay, logger)
		},
	}

	cmd.Flags().StringArrayVar(&lines, "line", defaultDemoLines, "user utterance to replay (repeatable)")
	cmd.Flags().DurationVar(&gap, "gap", 1500*time.Millisecond, "pause before each utterance")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, lines []string, gap, followUpDelay time.Duration, logger *zap.Logger) error {
	sink := newConsoleSink(out)
	source := capture.NewScriptedCapture(capture.Utterances(gap, lines...), logger)
	controller := usecase.NewConversationController(source, sink, logger, usecase.ControllerConfig{
		FollowUpDelay: followUpDelay,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go controller.Run(runCtx)

	if err := controller.Start(runCtx); err != nil {
		return err
	}

	// let every line and its follow-up play out
	wait := time.Duration(len(lines))*gap + followUpDelay + 500*time.Millisecond
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := controller.Stop(runCtx); err != nil {
		return err
	}

	select {
	case <-sink.ready:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("conversation did not finish")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// consoleSink renders the conversation as plain text
type consoleSink struct {
	mu    sync.Mutex
	out   io.Writer
	ready chan struct{}
	once  sync.Once
}

var _ repositories.UISink = (*consoleSink)(nil)

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out, ready: make(chan struct{})}
}

func (s *consoleSink) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *consoleSink) TranscriptAppended(sessionID string, u entities.Utterance) {
	s.printf("[%s] %s\n", u.Speaker, u.Text)
}

func (s *consoleSink) InterimResult(sessionID string, text string) {
	s.printf("  ... %s\n", text)
}

func (s *consoleSink) SessionStateChanged(sessionID string, state entities.SessionState) {
	s.printf("-- session %s is %s\n", sessionID, state)
}

func (s *consoleSink) RecommendationsReady(sessionID string, mood entities.Mood, recs []entities.Recommendation) {
	s.printf("mood: %s\n", mood)
	for i, r := range recs {
		s.printf("  %d. %s - %s\n", i+1, r.Title, r.Artist)
	}
	s.once.Do(func() { close(s.ready) })
}

func (s *consoleSink) Notice(err error) {
	s.printf("!! %v\n", err)
}
