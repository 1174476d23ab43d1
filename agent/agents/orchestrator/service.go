package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	safetyx "github.com/tanpawarit/link-companion-assistant/agent/safety"
	statex "github.com/tanpawarit/link-companion-assistant/agent/state"
)

var ErrRetrievalDisabled = errors.New("retrieval is not configured")

type Config struct {
	// TopK is the number of chunks retrieved per rag action.
	TopK int
}

type Orchestrator struct {
	gate      contractx.SafetyChecker
	planner   contractx.Planner
	tools     contractx.ToolRunner
	retriever contractx.Retriever
	synth     contractx.Synthesizer
	history   contractx.HistoryStore
	topK      int

	graphRunner compose.Runnable[contractx.ChatRequest, *contractx.ChatResponse]

	now   func() time.Time
	newID func() string
}

// Option overrides defaults, mostly for tests.
type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New wires the pipeline. A nil gate uses the default patterns, a nil
// retriever fails every rag action closed and a nil history store keeps
// transcripts in memory.
func New(
	gate contractx.SafetyChecker,
	planner contractx.Planner,
	tools contractx.ToolRunner,
	retriever contractx.Retriever,
	synth contractx.Synthesizer,
	history contractx.HistoryStore,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if tools == nil {
		return nil, errors.New("tool runner is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}
	if gate == nil {
		gate = safetyx.Default()
	}
	if retriever == nil {
		retriever = disabledRetriever{}
	}
	if history == nil {
		history = statex.NewMemoryStore()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	o := &Orchestrator{
		gate:      gate,
		planner:   planner,
		tools:     tools,
		retriever: retriever,
		synth:     synth,
		history:   history,
		topK:      topK,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Chat runs one turn. Collaborator failures degrade inside the pipeline; an
// error here means the graph itself could not run.
func (o *Orchestrator) Chat(ctx context.Context, req contractx.ChatRequest) (*contractx.ChatResponse, error) {
	resp, err := o.graphRunner.Invoke(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat graph failed")
		return nil, err
	}

	log.Info().
		Str("request_id", resp.RequestID).
		Str("session_id", req.SessionID).
		Str("route", resp.Route).
		Bool("blocked", resp.Telemetry.Blocked).
		Int64("latency_ms", resp.Telemetry.LatencyMS).
		Int("citations", len(resp.Citations)).
		Msg("chat turn complete")
	return resp, nil
}

type disabledRetriever struct{}

func (disabledRetriever) Search(context.Context, string, int, ...string) (contractx.RAGResult, error) {
	return contractx.RAGResult{}, ErrRetrievalDisabled
}
