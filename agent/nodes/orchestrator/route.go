package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	routerx "github.com/tanpawarit/link-companion-assistant/agent/router"
)

const (
	NodeFallback = "fallback"
	NodeResolve  = "resolve"
)

// Route asks the planner for a plan. A planning failure is recorded and
// leaves Plan nil so the graph takes the fallback branch.
func Route(ctx context.Context, in *GraphState, planner contractx.Planner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sec := in.traceSection("routing")
	plan, err := planner.Plan(ctx, contractx.PlanInput{
		Message:             in.Message,
		ConversationSummary: in.Request.ConversationSummary,
		UserProfile:         in.Request.UserProfile,
		ECUContext:          in.Request.ECUContext,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", in.RequestID).
			Msg("planning failed, falling back to direct answer")
		sec["ok"] = false
		sec["fallback"] = true
		sec["error"] = err.Error()
		sec["error_kind"] = contractx.FailureKind(err)
		return in, nil
	}

	in.Plan = &plan
	sec["ok"] = true
	sec["plan"] = plan
	return in, nil
}

func AfterRoute(in *GraphState) string {
	if in == nil || in.Plan == nil {
		return NodeFallback
	}
	return NodeResolve
}

// Fallback answers from the raw message only. No action is executed.
func Fallback(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Route = contractx.RouteFallback
	in.Answer = FallbackAnswer(in.Message)
	return in, nil
}

func FallbackAnswer(message string) string {
	return "(Demo) You said " + message
}

// Resolve fixes the action set and the clarifying question for the turn.
func Resolve(in *GraphState) (*GraphState, error) {
	if in == nil || in.Plan == nil {
		return nil, fmt.Errorf("%w: plan is missing", contractx.ErrValidation)
	}

	in.Actions = routerx.ResolveActions(*in.Plan)
	in.Route = string(in.Plan.Mode)
	in.Execution = contractx.ExecutionResult{
		Actions:   in.Actions,
		Citations: []contractx.Citation{},
	}
	if contractx.HasAction(in.Actions, contractx.ActionClarify) && in.Plan.ClarifyingQuestion != nil {
		q := *in.Plan.ClarifyingQuestion
		in.Execution.ClarifyingQuestion = &q
	}

	in.traceSection("routing")["resolved_actions"] = in.Actions
	return in, nil
}
