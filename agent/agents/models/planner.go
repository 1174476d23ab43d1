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

// PlanGenerator asks a chat model for a RoutePlan in JSON.
type PlanGenerator struct {
	runner compose.Runnable[map[string]any, contractx.RoutePlan]
	tools  string
}

var _ contractx.PlanGenerator = (*PlanGenerator)(nil)

func NewPlanGenerator(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	tools []*schema.ToolInfo,
) (*PlanGenerator, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: router prompt is empty", contractx.ErrPromptMissing)
	}
	runner, err := compileStructuredLLMGraph[contractx.RoutePlan](ctx, chatModel, systemPrompt, "router.plan_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile plan graph: %v", contractx.ErrModelInvoke, err)
	}

	toolsJSON, err := describeTools(tools)
	if err != nil {
		return nil, err
	}
	return &PlanGenerator{runner: runner, tools: toolsJSON}, nil
}

func (p *PlanGenerator) Propose(ctx context.Context, req contractx.PlanRequest) (contractx.RoutePlan, error) {
	inputBytes, err := json.Marshal(req)
	if err != nil {
		return contractx.RoutePlan{}, fmt.Errorf("%w: marshal plan request: %v", contractx.ErrValidation, err)
	}

	plan, err := p.runner.Invoke(ctx, map[string]any{
		"input": "Route this request:\n" + string(inputBytes),
		"tools": p.tools,
	})
	if err != nil {
		return contractx.RoutePlan{}, fmt.Errorf("%w: plan invoke: %v", contractx.ErrModelInvoke, err)
	}
	return plan, nil
}

func describeTools(tools []*schema.ToolInfo) (string, error) {
	type toolDesc struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  any    `json:"parameters,omitempty"`
	}

	descs := make([]toolDesc, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}
		d := toolDesc{Name: info.Name, Description: info.Desc}
		if info.ParamsOneOf != nil {
			js, err := info.ParamsOneOf.ToJSONSchema()
			if err != nil {
				return "", fmt.Errorf("%w: tool %s schema: %v", contractx.ErrValidation, info.Name, err)
			}
			d.Parameters = js
		}
		descs = append(descs, d)
	}

	b, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal tool catalog: %v", contractx.ErrValidation, err)
	}
	return string(b), nil
}
