package router

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

type fakeGenerator struct {
	plan    contractx.RoutePlan
	err     error
	calls   int
	lastReq contractx.PlanRequest
}

func (f *fakeGenerator) Propose(ctx context.Context, req contractx.PlanRequest) (contractx.RoutePlan, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return contractx.RoutePlan{}, f.err
	}
	return f.plan, nil
}

func strPtr(s string) *string { return &s }

func TestResolveActionsSingularModes(t *testing.T) {
	t.Parallel()

	for _, mode := range []contractx.Mode{
		contractx.ModeDirectAnswer,
		contractx.ModeRAG,
		contractx.ModeTool,
		contractx.ModeClarify,
	} {
		for _, listed := range [][]contractx.Action{
			nil,
			{contractx.Action(mode)},
			{contractx.ActionRAG, contractx.ActionTool},
		} {
			got := ResolveActions(contractx.RoutePlan{Mode: mode, Actions: listed})
			want := []contractx.Action{contractx.Action(mode)}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("mode=%s listed=%v: got %v, want %v", mode, listed, got, want)
			}
		}
	}
}

func TestResolveActionsHybridFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan contractx.RoutePlan
		want []contractx.Action
	}{
		{
			name: "rag query set",
			plan: contractx.RoutePlan{Mode: contractx.ModeHybrid, RAGQuery: strPtr("pclink pairing")},
			want: []contractx.Action{contractx.ActionRAG},
		},
		{
			name: "collections set",
			plan: contractx.RoutePlan{Mode: contractx.ModeHybrid, RAGCollections: []string{"manuals"}},
			want: []contractx.Action{contractx.ActionRAG},
		},
		{
			name: "blank rag query",
			plan: contractx.RoutePlan{Mode: contractx.ModeHybrid, RAGQuery: strPtr("   ")},
			want: []contractx.Action{contractx.ActionDirectAnswer},
		},
		{
			name: "nothing set",
			plan: contractx.RoutePlan{Mode: contractx.ModeHybrid},
			want: []contractx.Action{contractx.ActionDirectAnswer},
		},
		{
			name: "explicit actions deduplicated",
			plan: contractx.RoutePlan{
				Mode:    contractx.ModeHybrid,
				Actions: []contractx.Action{contractx.ActionTool, contractx.ActionRAG, contractx.ActionTool, contractx.ActionClarify},
			},
			want: []contractx.Action{contractx.ActionTool, contractx.ActionRAG, contractx.ActionClarify},
		},
	}

	for _, tt := range tests {
		got := ResolveActions(tt.plan)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidateRejectsMalformedPlans(t *testing.T) {
	t.Parallel()

	tests := map[string]contractx.RoutePlan{
		"unknown mode":      {Mode: "chitchat", Confidence: 0.5},
		"hybrid as action":  {Mode: contractx.ModeHybrid, Actions: []contractx.Action{"hybrid"}, Confidence: 0.5},
		"merged literal":    {Mode: contractx.ModeHybrid, Actions: []contractx.Action{"toolclarify"}, Confidence: 0.5},
		"confidence high":   {Mode: contractx.ModeRAG, Confidence: 1.2},
		"confidence low":    {Mode: contractx.ModeRAG, Confidence: -0.1},
		"tool without name": {Mode: contractx.ModeTool, Confidence: 0.9, ToolCalls: []contractx.ToolCall{{Name: " "}}},
	}

	for name, plan := range tests {
		if err := Validate(plan); !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("%s: expected ErrSchemaViolation, got %v", name, err)
		}
	}
}

func TestNormalizeKeepsClarifyingQuestionOnlyWithClarify(t *testing.T) {
	t.Parallel()

	withClarify := Normalize(contractx.RoutePlan{
		Mode:               contractx.ModeHybrid,
		Actions:            []contractx.Action{contractx.ActionRAG, contractx.ActionClarify},
		ClarifyingQuestion: strPtr("  Which model year is the car?  "),
	})
	if withClarify.ClarifyingQuestion == nil || *withClarify.ClarifyingQuestion != "Which model year is the car?" {
		t.Fatalf("unexpected clarifying question: %v", withClarify.ClarifyingQuestion)
	}

	withoutClarify := Normalize(contractx.RoutePlan{
		Mode:               contractx.ModeRAG,
		ClarifyingQuestion: strPtr("Which model year?"),
	})
	if withoutClarify.ClarifyingQuestion != nil {
		t.Fatalf("expected clarifying question to be dropped, got %q", *withoutClarify.ClarifyingQuestion)
	}
}

func TestRouterPlanForwardsOnlyKeys(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{plan: contractx.RoutePlan{Mode: contractx.ModeRAG, Confidence: 0.9}}
	r, err := New(gen, []string{"lookup_fault_code"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plan, err := r.Plan(context.Background(), contractx.PlanInput{
		Message:     "how do I pair pclink",
		UserProfile: map[string]any{"name": "Sam", "country": "NZ"},
		ECUContext:  map[string]any{"firmware": "6.23.1"},
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !reflect.DeepEqual(plan.Actions, []contractx.Action{contractx.ActionRAG}) {
		t.Fatalf("unexpected actions: %v", plan.Actions)
	}
	if !reflect.DeepEqual(gen.lastReq.UserProfileKeys, []string{"country", "name"}) {
		t.Fatalf("unexpected profile keys: %v", gen.lastReq.UserProfileKeys)
	}
	if !reflect.DeepEqual(gen.lastReq.ECUContextKeys, []string{"firmware"}) {
		t.Fatalf("unexpected ecu keys: %v", gen.lastReq.ECUContextKeys)
	}
}

func TestRouterPlanGeneratorFailure(t *testing.T) {
	t.Parallel()

	r, err := New(&fakeGenerator{err: errors.New("timeout")}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.Plan(context.Background(), contractx.PlanInput{Message: "hi"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestRouterPlanInvalidPlan(t *testing.T) {
	t.Parallel()

	r, err := New(&fakeGenerator{plan: contractx.RoutePlan{Mode: "weird"}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.Plan(context.Background(), contractx.PlanInput{Message: "hi"})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestRouterPlanKeepsUnapprovedToolCalls(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{plan: contractx.RoutePlan{
		Mode:       contractx.ModeTool,
		Confidence: 0.8,
		ToolCalls: []contractx.ToolCall{
			{Name: "lookup_fault_code", Args: map[string]any{"code": "P0123"}},
			{Name: " lookup_pinout ", Args: map[string]any{"ecu": "G4X"}},
		},
	}}
	r, err := New(gen, []string{"lookup_fault_code", "lookup_ecu_fitment"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plan, err := r.Plan(context.Background(), contractx.PlanInput{Message: "P0123 and the pinout"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.ToolCalls) != 2 || plan.ToolCalls[1].Name != "lookup_pinout" {
		t.Fatalf("expected both tool calls to survive, got %+v", plan.ToolCalls)
	}
	if got := UnapprovedTools(plan, r.allowedTools); !reflect.DeepEqual(got, []string{"lookup_pinout"}) {
		t.Fatalf("unexpected unapproved tools: %v", got)
	}
}

func TestRouterPlanKeepsGeneratorSentinels(t *testing.T) {
	t.Parallel()

	genErr := fmt.Errorf("%w: marshal plan request", contractx.ErrValidation)
	r, err := New(&fakeGenerator{err: genErr}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.Plan(context.Background(), contractx.PlanInput{Message: "hi"})
	if !errors.Is(err, contractx.ErrValidation) || errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrValidation untouched, got %v", err)
	}
	if got := contractx.FailureKind(err); got != "validation" {
		t.Fatalf("FailureKind = %q, want validation", got)
	}
}

func TestRouterPlanWrapsPlainGeneratorErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	r, _ := New(&fakeGenerator{err: cause}, nil)
	_, err := r.Plan(context.Background(), contractx.PlanInput{Message: "hi"})
	if !errors.Is(err, contractx.ErrModelInvoke) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrModelInvoke wrapping the cause, got %v", err)
	}
}
