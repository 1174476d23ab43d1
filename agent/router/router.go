package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// Router turns a possibly unreliable PlanGenerator into a deterministic
// planning step.
type Router struct {
	generator    contractx.PlanGenerator
	allowedTools map[string]struct{}
}

var _ contractx.Planner = (*Router)(nil)

// New builds a Router. allowedTools only feeds the unapproved-tool warning;
// enforcement lives in the tool dispatcher.
func New(generator contractx.PlanGenerator, allowedTools []string) (*Router, error) {
	if generator == nil {
		return nil, errors.New("plan generator is required")
	}

	var allowed map[string]struct{}
	if allowedTools != nil {
		allowed = make(map[string]struct{}, len(allowedTools))
		for _, name := range allowedTools {
			allowed[name] = struct{}{}
		}
	}

	return &Router{
		generator:    generator,
		allowedTools: allowed,
	}, nil
}

func (r *Router) Plan(ctx context.Context, in contractx.PlanInput) (contractx.RoutePlan, error) {
	plan, err := r.generator.Propose(ctx, BuildPlanRequest(in))
	if err != nil {
		if contractx.FailureKind(err) != "unknown" {
			return contractx.RoutePlan{}, err
		}
		return contractx.RoutePlan{}, fmt.Errorf("%w: plan generator: %w", contractx.ErrModelInvoke, err)
	}

	if err := Validate(plan); err != nil {
		log.Warn().Err(err).Str("mode", string(plan.Mode)).Msg("route plan rejected")
		return contractx.RoutePlan{}, err
	}
	if names := UnapprovedTools(plan, r.allowedTools); len(names) > 0 {
		log.Warn().Strs("tools", names).Msg("route plan requests unapproved tools")
	}
	return Normalize(plan), nil
}

// BuildPlanRequest forwards key names of the profile and ECU context only.
func BuildPlanRequest(in contractx.PlanInput) contractx.PlanRequest {
	return contractx.PlanRequest{
		Message:             in.Message,
		ConversationSummary: strings.TrimSpace(in.ConversationSummary),
		UserProfileKeys:     sortedKeys(in.UserProfile),
		ECUContextKeys:      sortedKeys(in.ECUContext),
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
