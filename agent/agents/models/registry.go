package models

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	llmx "github.com/tanpawarit/link-companion-assistant/agent/llm"
	promptx "github.com/tanpawarit/link-companion-assistant/agent/prompt"
)

// Registry bundles the model-backed collaborators of the pipeline.
type Registry struct {
	Planner     contractx.PlanGenerator
	Synthesizer contractx.Synthesizer
}

func NewRegistry(ctx context.Context, cfg llmx.Config, tools []*schema.ToolInfo) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	routerModel, err := cfg.BuilderFor(llmx.RoleRouter).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	synthModel, err := cfg.BuilderFor(llmx.RoleSynthesizer).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create synthesizer model: %v", contractx.ErrModelInvoke, err)
	}

	planner, err := NewPlanGenerator(ctx, routerModel, prompts.Router, tools)
	if err != nil {
		return nil, err
	}
	synth, err := NewSynthesizer(ctx, synthModel, prompts.Synthesizer)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", string(cfg.Provider)).
		Int("tools", len(tools)).
		Msg("llm collaborators ready")

	return &Registry{Planner: planner, Synthesizer: synth}, nil
}
