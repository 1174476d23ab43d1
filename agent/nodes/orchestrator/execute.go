package orchestratornode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	toolx "github.com/tanpawarit/link-companion-assistant/agent/tool"
)

// Executors are the collaborators the execute step may call.
type Executors struct {
	Tools     contractx.ToolRunner
	Retriever contractx.Retriever
	TopK      int
}

// partial is what one action handler contributes to the turn.
type partial struct {
	toolResults *contractx.ToolResults
	ragResult   *contractx.RAGResult
	ragError    string
	citations   []contractx.Citation
}

type actionHandler func(ctx context.Context, in *GraphState, ex Executors) partial

// executionOrder is the order partials are merged in, whatever order the
// handlers finish in.
var executionOrder = []contractx.Action{contractx.ActionTool, contractx.ActionRAG}

var actionHandlers = map[contractx.Action]actionHandler{
	contractx.ActionTool: runTools,
	contractx.ActionRAG:  runRetrieval,
}

// Execute runs the tool and rag handlers of the resolved actions concurrently
// and merges their results tool first. direct_answer and clarify have no
// execution step.
func Execute(ctx context.Context, in *GraphState, ex Executors) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	partials := make([]*partial, len(executionOrder))
	var wg sync.WaitGroup
	for i, action := range executionOrder {
		if !contractx.HasAction(in.Actions, action) {
			continue
		}
		handler := actionHandlers[action]
		wg.Add(1)
		go func(i int, handler actionHandler) {
			defer wg.Done()
			p := handler(ctx, in, ex)
			partials[i] = &p
		}(i, handler)
	}
	wg.Wait()

	for _, p := range partials {
		if p == nil {
			continue
		}
		mergePartial(&in.Execution, *p)
	}

	in.traceSection("execution")["actions"] = in.Actions
	if in.Execution.ToolResults != nil {
		in.traceSection("execution")["tool"] = map[string]any{
			"calls":  len(in.Execution.ToolResults.Calls),
			"errors": in.Execution.ToolResults.Errors,
		}
	}
	if in.Execution.RAGResult != nil {
		rag := map[string]any{
			"query": in.Execution.RAGResult.Query,
			"top_k": in.Execution.RAGResult.TopK,
			"hits":  len(in.Execution.RAGResult.Hits),
		}
		if in.Execution.RAGError != "" {
			rag["error"] = in.Execution.RAGError
		}
		in.traceSection("execution")["rag"] = rag
	}
	return in, nil
}

func mergePartial(dst *contractx.ExecutionResult, p partial) {
	if p.toolResults != nil {
		dst.ToolResults = p.toolResults
	}
	if p.ragResult != nil {
		dst.RAGResult = p.ragResult
		dst.RAGError = p.ragError
	}
	dst.Citations = append(dst.Citations, p.citations...)
}

func runTools(ctx context.Context, in *GraphState, ex Executors) partial {
	var calls []contractx.ToolCall
	if in.Plan != nil {
		calls = in.Plan.ToolCalls
	}

	results := ex.Tools.Run(ctx, calls)
	citations := make([]contractx.Citation, 0, len(results.Calls))
	for _, call := range results.Calls {
		c := contractx.Citation{
			Type: contractx.CitationTool,
			Tool: call.Name,
			Args: call.Args,
		}
		if f, ok := call.Output.(toolx.Founder); ok {
			found := f.IsFound()
			c.Found = &found
		}
		citations = append(citations, c)
	}
	return partial{toolResults: &results, citations: citations}
}

func runRetrieval(ctx context.Context, in *GraphState, ex Executors) partial {
	query := in.Message
	var collections []string
	if in.Plan != nil {
		if in.Plan.RAGQuery != nil && strings.TrimSpace(*in.Plan.RAGQuery) != "" {
			query = strings.TrimSpace(*in.Plan.RAGQuery)
		}
		collections = in.Plan.RAGCollections
	}

	res, err := ex.Retriever.Search(ctx, query, ex.TopK, collections...)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", in.RequestID).
			Msg("retrieval failed, continuing without hits")
		return partial{
			ragResult: &contractx.RAGResult{Query: query, TopK: ex.TopK, Hits: []contractx.Hit{}},
			ragError:  err.Error(),
		}
	}
	if res.Hits == nil {
		res.Hits = []contractx.Hit{}
	}

	citations := make([]contractx.Citation, 0, len(res.Hits))
	for _, h := range res.Hits {
		citations = append(citations, contractx.Citation{
			Type:    contractx.CitationRAG,
			DocID:   h.DocID,
			Path:    h.Path,
			ChunkID: h.ChunkID,
			Score:   h.Score,
		})
	}
	return partial{ragResult: &res, citations: citations}
}
