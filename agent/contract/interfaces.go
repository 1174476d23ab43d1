package contract

import "context"

// PlanGenerator proposes a RoutePlan for a single turn. Implementations may be
// unreliable; callers validate and normalise what they return.
type PlanGenerator interface {
	Propose(ctx context.Context, req PlanRequest) (RoutePlan, error)
}

type Synthesizer interface {
	Compose(ctx context.Context, req SynthesisRequest) (string, error)
}

type SafetyChecker interface {
	Check(message string) Verdict
}

type Planner interface {
	Plan(ctx context.Context, in PlanInput) (RoutePlan, error)
}

type ToolRunner interface {
	Run(ctx context.Context, calls []ToolCall) ToolResults
}

type Retriever interface {
	Search(ctx context.Context, query string, k int, collections ...string) (RAGResult, error)
}

// HistoryStore owns the bounded per-session transcript.
type HistoryStore interface {
	History(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) ([]Turn, error)
}
