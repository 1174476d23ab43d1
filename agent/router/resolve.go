package router

import (
	"fmt"
	"math"
	"strings"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// Validate rejects plans that cannot be repaired. Duplicate actions, blank
// optional strings and stray clarifying questions are repaired by Normalize.
// Tool names are not checked here: the dispatcher records unapproved calls
// per call so approved siblings still run.
func Validate(plan contractx.RoutePlan) error {
	if !plan.Mode.Valid() {
		return fmt.Errorf("%w: unsupported mode=%q", contractx.ErrSchemaViolation, plan.Mode)
	}
	for _, a := range plan.Actions {
		if !a.Valid() {
			return fmt.Errorf("%w: unsupported action=%q", contractx.ErrSchemaViolation, a)
		}
	}
	if math.IsNaN(plan.Confidence) || plan.Confidence < 0 || plan.Confidence > 1 {
		return fmt.Errorf("%w: confidence=%v out of range [0,1]", contractx.ErrSchemaViolation, plan.Confidence)
	}
	for i, call := range plan.ToolCalls {
		if strings.TrimSpace(call.Name) == "" {
			return fmt.Errorf("%w: tool_calls[%d] has empty name", contractx.ErrSchemaViolation, i)
		}
	}
	return nil
}

// UnapprovedTools lists requested tool names missing from allowed, in call
// order. A nil allowed set approves everything.
func UnapprovedTools(plan contractx.RoutePlan, allowed map[string]struct{}) []string {
	if allowed == nil {
		return nil
	}
	var out []string
	for _, call := range plan.ToolCalls {
		name := strings.TrimSpace(call.Name)
		if _, ok := allowed[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// ResolveActions derives the definitive action list for a plan. It never
// returns an empty slice.
func ResolveActions(plan contractx.RoutePlan) []contractx.Action {
	if plan.Mode != contractx.ModeHybrid {
		return []contractx.Action{contractx.Action(plan.Mode)}
	}

	actions := dedupeActions(plan.Actions)
	if len(actions) > 0 {
		return actions
	}

	if ragQuery(plan) != "" || len(plan.RAGCollections) > 0 {
		return []contractx.Action{contractx.ActionRAG}
	}
	return []contractx.Action{contractx.ActionDirectAnswer}
}

// Normalize returns a copy of plan with resolved actions and the optional
// fields trimmed to what the resolved actions can use.
func Normalize(plan contractx.RoutePlan) contractx.RoutePlan {
	out := plan
	out.Actions = ResolveActions(plan)
	out.Reason = strings.TrimSpace(plan.Reason)

	if q := ragQuery(plan); q != "" {
		out.RAGQuery = &q
	} else {
		out.RAGQuery = nil
	}
	out.RAGCollections = compactStrings(plan.RAGCollections)

	out.ClarifyingQuestion = nil
	if contractx.HasAction(out.Actions, contractx.ActionClarify) && plan.ClarifyingQuestion != nil {
		if q := strings.TrimSpace(*plan.ClarifyingQuestion); q != "" {
			out.ClarifyingQuestion = &q
		}
	}

	if len(plan.ToolCalls) > 0 {
		calls := make([]contractx.ToolCall, 0, len(plan.ToolCalls))
		for _, c := range plan.ToolCalls {
			calls = append(calls, contractx.ToolCall{Name: strings.TrimSpace(c.Name), Args: c.Args})
		}
		out.ToolCalls = calls
	}
	return out
}

func dedupeActions(in []contractx.Action) []contractx.Action {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[contractx.Action]struct{}, len(in))
	out := make([]contractx.Action, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func ragQuery(plan contractx.RoutePlan) string {
	if plan.RAGQuery == nil {
		return ""
	}
	return strings.TrimSpace(*plan.RAGQuery)
}

func compactStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
