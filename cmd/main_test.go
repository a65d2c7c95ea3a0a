package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"classify", "I", "feel", "so", "pumped", "and", "motivated"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "mood: energetic") {
		t.Errorf("Expected energetic mood, got:\n%s", got)
	}
	if strings.Count(got, " - ") != 3 {
		t.Errorf("Expected 3 recommendations, got:\n%s", got)
	}
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	lines := []string{"I feel calm", "so peaceful and relaxed"}

	err := runDemo(context.Background(), &out, lines, 10*time.Millisecond, 20*time.Millisecond, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("runDemo() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"[agent] Hi there!",
		"[user] I feel calm",
		"[user] so peaceful and relaxed",
		"is ended",
		"mood: calm",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
}
