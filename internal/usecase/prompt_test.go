package usecase

import (
	"strings"
	"testing"

	"krakengpt/internal/domain"
)

func TestAssembleMessagesStripsCallerSystemMessages(t *testing.T) {
	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: "caller-provided system prompt"},
		{Role: domain.RoleUser, Content: "first question"},
		{Role: domain.RoleAssistant, Content: "first answer"},
		{Role: domain.RoleSystem, Content: "another sneaky system prompt"},
		{Role: domain.RoleUser, Content: "second question"},
	}

	out := AssembleMessages(BaseInstructions, "", messages)

	systemCount := 0
	for _, m := range out {
		if m.Role == domain.RoleSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Fatalf("expected exactly one system message, got %d", systemCount)
	}
	if out[0].Role != domain.RoleSystem {
		t.Error("synthesized system message must come first")
	}
	if strings.Contains(out[0].Content, "sneaky") {
		t.Error("caller system content leaked into the synthesized message")
	}

	rest := out[1:]
	want := []string{"first question", "first answer", "second question"}
	if len(rest) != len(want) {
		t.Fatalf("expected %d non-system messages, got %d", len(want), len(rest))
	}
	for i, m := range rest {
		if m.Content != want[i] {
			t.Errorf("message %d out of order: %q", i, m.Content)
		}
	}
}

func TestAssembleMessagesSplicesContext(t *testing.T) {
	context := "[Fonte: doc.txt - Rilevanza: 88.0%]\nqualche estratto"

	out := AssembleMessages(BaseInstructions, context, []domain.Message{
		{Role: domain.RoleUser, Content: "domanda"},
	})

	system := out[0].Content
	if !strings.Contains(system, contextHeader) || !strings.Contains(system, contextFooter) {
		t.Error("context section not delimited")
	}
	if !strings.Contains(system, "qualche estratto") {
		t.Error("retrieved context missing from system message")
	}
	if !strings.Contains(system, contextDirectives) {
		t.Error("usage directives missing")
	}
}

func TestAssembleMessagesEmptyContext(t *testing.T) {
	out := AssembleMessages(BaseInstructions, "", []domain.Message{
		{Role: domain.RoleUser, Content: "domanda"},
	})

	if out[0].Content != BaseInstructions {
		t.Errorf("empty context must leave the base instructions untouched: %q", out[0].Content)
	}
}

func TestLatestUserMessage(t *testing.T) {
	messages := []domain.Message{
		{Role: domain.RoleUser, Content: "old"},
		{Role: domain.RoleAssistant, Content: "reply"},
		{Role: domain.RoleUser, Content: "newest"},
		{Role: domain.RoleAssistant, Content: "pending"},
	}
	if got := LatestUserMessage(messages); got != "newest" {
		t.Errorf("expected newest user message, got %q", got)
	}
	if got := LatestUserMessage(nil); got != "" {
		t.Errorf("expected empty string for no messages, got %q", got)
	}
}
