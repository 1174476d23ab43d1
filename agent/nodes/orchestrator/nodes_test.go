package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	toolx "github.com/tanpawarit/link-companion-assistant/agent/tool"
)

type stubTools struct{ out contractx.ToolResults }

func (s stubTools) Run(context.Context, []contractx.ToolCall) contractx.ToolResults { return s.out }

type stubRetriever struct {
	res contractx.RAGResult
	err error
}

func (s stubRetriever) Search(context.Context, string, int, ...string) (contractx.RAGResult, error) {
	return s.res, s.err
}

func TestNormalizeTrimsAndTraces(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	st, err := Normalize(contractx.ChatRequest{
		Message:     "   ",
		UserProfile: map[string]any{"b": 1, "a": 2},
		Attachments: []map[string]any{{"name": "log.llg"}},
	}, "rid", now)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if st.Message != "" || st.RequestID != "rid" || !st.StartedAt.Equal(now) {
		t.Fatalf("state = %+v", st)
	}
	input := st.Trace["input"].(map[string]any)
	keys := input["user_profile_keys"].([]string)
	if len(keys) != 2 || keys[0] != "a" {
		t.Fatalf("profile keys = %v", keys)
	}
	if input["num_attachments"] != 1 || input["has_session"] != false {
		t.Fatalf("input trace = %#v", input)
	}
}

func TestExecuteSkipsHandlersOutsideActions(t *testing.T) {
	t.Parallel()

	st := &GraphState{
		Message: "explain lambda",
		Plan:    &contractx.RoutePlan{Mode: contractx.ModeDirectAnswer},
		Actions: []contractx.Action{contractx.ActionDirectAnswer},
		Trace:   map[string]any{},
	}
	out, err := Execute(context.Background(), st, Executors{
		Tools:     stubTools{out: contractx.ToolResults{Calls: []contractx.ToolCallResult{{Name: "x"}}}},
		Retriever: stubRetriever{err: errors.New("should not run")},
		TopK:      3,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Execution.ToolResults != nil || out.Execution.RAGResult != nil || len(out.Execution.Citations) != 0 {
		t.Fatalf("execution = %+v", out.Execution)
	}
}

func TestExecuteToolCitationsCarryFound(t *testing.T) {
	t.Parallel()

	st := &GraphState{
		Plan:    &contractx.RoutePlan{Mode: contractx.ModeTool},
		Actions: []contractx.Action{contractx.ActionTool},
		Trace:   map[string]any{},
	}
	out, err := Execute(context.Background(), st, Executors{
		Tools: stubTools{out: contractx.ToolResults{Calls: []contractx.ToolCallResult{
			{Name: toolx.ToolLookupFaultCode, Output: toolx.FaultCodeOutput{Found: false, Code: "P9999"}},
			{Name: "custom", Output: map[string]any{"ok": true}},
		}}},
		Retriever: stubRetriever{},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	cites := out.Execution.Citations
	if len(cites) != 2 {
		t.Fatalf("citations = %#v", cites)
	}
	if cites[0].Found == nil || *cites[0].Found {
		t.Fatalf("first citation should be found=false: %#v", cites[0])
	}
	if cites[1].Found != nil {
		t.Fatalf("output without found flag should leave Found nil")
	}
}

func TestDegradedAnswerListsResultsThenQuestion(t *testing.T) {
	t.Parallel()

	q := "Which model year?"
	got := DegradedAnswer(contractx.ExecutionResult{
		ToolResults: &contractx.ToolResults{Calls: []contractx.ToolCallResult{
			{Name: toolx.ToolLookupFaultCode, Output: toolx.FaultCodeOutput{Found: true, Code: "P0123", Title: "TPS high", Summary: "Signal above range."}},
			{Name: toolx.ToolLookupECUFitment, Output: toolx.FitmentOutput{Found: true, Matches: []toolx.FitmentMatch{{Name: "G4X Plug-in"}}}},
		}},
		RAGResult:          &contractx.RAGResult{Hits: []contractx.Hit{{DocID: "tps.md", ChunkID: 1}}},
		ClarifyingQuestion: &q,
	})

	for _, want := range []string{"P0123: TPS high", "G4X Plug-in", "[Source 1] tps.md (chunk 1)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("degraded answer missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, q) {
		t.Fatalf("clarifying question must come last:\n%s", got)
	}
}

func TestDegradedAnswerSummarizesToolErrors(t *testing.T) {
	t.Parallel()

	got := DegradedAnswer(contractx.ExecutionResult{
		ToolResults: &contractx.ToolResults{Errors: []string{"Tool not allowed: rm_rf"}},
	})
	if !strings.Contains(got, "Tool not allowed: rm_rf") {
		t.Fatalf("tool errors not summarized: %s", got)
	}
}

func TestRespondComputesLatency(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	resp, err := Respond(&GraphState{
		RequestID: "rid",
		StartedAt: start,
		Route:     "rag",
		Answer:    "a",
	}, start.Add(42*time.Millisecond))
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.Telemetry.LatencyMS != 42 || resp.Telemetry.Route != "rag" || resp.Citations == nil {
		t.Fatalf("response = %+v", resp)
	}
}

type stubPlanner struct {
	plan contractx.RoutePlan
	err  error
}

func (s stubPlanner) Plan(context.Context, contractx.PlanInput) (contractx.RoutePlan, error) {
	return s.plan, s.err
}

func TestRouteFailureRecordsKindAndFallsBack(t *testing.T) {
	t.Parallel()

	in, _ := Normalize(contractx.ChatRequest{Message: "hello"}, "req", time.Now())
	planErr := fmt.Errorf("%w: unsupported mode=%q", contractx.ErrSchemaViolation, "chitchat")

	out, err := Route(context.Background(), in, stubPlanner{err: planErr})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if out.Plan != nil {
		t.Fatalf("expected nil plan on failure, got %+v", out.Plan)
	}
	if AfterRoute(out) != NodeFallback {
		t.Fatalf("expected fallback branch, got %s", AfterRoute(out))
	}
	routing := out.Trace["routing"].(map[string]any)
	if routing["error_kind"] != "schema_violation" || routing["fallback"] != true {
		t.Fatalf("unexpected routing trace: %+v", routing)
	}

	out, _ = Fallback(out)
	if out.Route != contractx.RouteFallback || out.Answer != "(Demo) You said hello" {
		t.Fatalf("unexpected fallback: route=%s answer=%q", out.Route, out.Answer)
	}
}
