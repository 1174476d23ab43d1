package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// Synthesizer composes the final answer from the execution context.
type Synthesizer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Synthesizer, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: synthesizer prompt is empty", contractx.ErrPromptMissing)
	}
	runner, err := compileConversationGraph(ctx, chatModel, systemPrompt, "synthesizer.answer_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile synthesizer graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Synthesizer{runner: runner}, nil
}

func (s *Synthesizer) Compose(ctx context.Context, req contractx.SynthesisRequest) (string, error) {
	input, err := BuildSynthesisInput(req)
	if err != nil {
		return "", err
	}

	msg, err := s.runner.Invoke(ctx, map[string]any{
		"input":   input,
		"history": historyMessages(req.History),
	})
	if err != nil {
		return "", fmt.Errorf("%w: synthesizer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: synthesizer returned empty answer", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(msg.Content), nil
}

// BuildSynthesisInput renders the user question, the actions taken and every
// available context section.
func BuildSynthesisInput(req contractx.SynthesisRequest) (string, error) {
	var sections []string

	if req.ToolResults != nil && (len(req.ToolResults.Calls) > 0 || len(req.ToolResults.Errors) > 0) {
		b, err := json.MarshalIndent(req.ToolResults, "", "  ")
		if err != nil {
			return "", fmt.Errorf("%w: marshal tool results: %v", contractx.ErrValidation, err)
		}
		sections = append(sections, "TOOL OUTPUTS:\n"+string(b))
	}

	if len(req.RAGHits) > 0 {
		var sb strings.Builder
		for i, hit := range req.RAGHits {
			fmt.Fprintf(&sb, "[Source %d] %s (chunk %d)\n%s\n\n", i+1, hit.DocID, hit.ChunkID, hit.Text)
		}
		sections = append(sections, "RAG SOURCES:\n"+strings.TrimSpace(sb.String()))
	}

	if req.ClarifyingQuestion != nil && strings.TrimSpace(*req.ClarifyingQuestion) != "" {
		sections = append(sections, "CLARIFYING QUESTION TO ASK:\n"+strings.TrimSpace(*req.ClarifyingQuestion))
	}

	actions := make([]string, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, string(a))
	}

	body := "(none)"
	if len(sections) > 0 {
		body = strings.Join(sections, "\n\n")
	}

	return fmt.Sprintf("USER QUESTION:\n%s\n\nACTIONS USED:\n%s\n\nCONTEXT:\n%s",
		req.Message, strings.Join(actions, ", "), body), nil
}

func historyMessages(turns []contractx.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleUser:
			msgs = append(msgs, schema.UserMessage(t.Content))
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		}
	}
	return msgs
}
