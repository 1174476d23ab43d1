package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	nodex "github.com/tanpawarit/link-companion-assistant/agent/nodes/orchestrator"
)

const (
	nodeNormalize  = "normalize"
	nodeSafety     = "safety"
	nodeRefuse     = nodex.NodeRefuse
	nodeRoute      = nodex.NodeRoute
	nodeFallback   = nodex.NodeFallback
	nodeResolve    = nodex.NodeResolve
	nodeExecute    = "execute"
	nodeSynthesize = "synthesize"
	nodeCommit     = nodex.NodeCommit
	nodeRespond    = nodex.NodeRespond
)

func (o *Orchestrator) compileChatGraph(
	ctx context.Context,
) (compose.Runnable[contractx.ChatRequest, *contractx.ChatResponse], error) {
	graph := compose.NewGraph[contractx.ChatRequest, *contractx.ChatResponse]()

	if err := graph.AddLambdaNode(nodeNormalize,
		compose.InvokableLambda(func(ctx context.Context, in contractx.ChatRequest) (*nodex.GraphState, error) {
			return nodex.Normalize(in, o.newID(), o.now())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeNormalize, err)
	}

	if err := graph.AddLambdaNode(nodeSafety,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Safety(in, o.gate)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeSafety, err)
	}

	if err := graph.AddLambdaNode(nodeRefuse,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Refuse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRefuse, err)
	}

	if err := graph.AddLambdaNode(nodeRoute,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Route(ctx, in, o.planner)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRoute, err)
	}

	if err := graph.AddLambdaNode(nodeFallback,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Fallback(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeFallback, err)
	}

	if err := graph.AddLambdaNode(nodeResolve,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Resolve(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeResolve, err)
	}

	if err := graph.AddLambdaNode(nodeExecute,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Execute(ctx, in, nodex.Executors{
				Tools:     o.tools,
				Retriever: o.retriever,
				TopK:      o.topK,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeExecute, err)
	}

	if err := graph.AddLambdaNode(nodeSynthesize,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Synthesize(ctx, in, o.synth, o.history)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeSynthesize, err)
	}

	if err := graph.AddLambdaNode(nodeCommit,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Commit(ctx, in, o.history)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeCommit, err)
	}

	if err := graph.AddLambdaNode(nodeRespond,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*contractx.ChatResponse, error) {
			return nodex.Respond(in, o.now())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRespond, err)
	}

	branches := []struct {
		from string
		pick func(*nodex.GraphState) string
		to   []string
	}{
		{from: nodeSafety, pick: nodex.AfterSafety, to: []string{nodeRefuse, nodeRoute}},
		{from: nodeRoute, pick: nodex.AfterRoute, to: []string{nodeFallback, nodeResolve}},
		{from: nodeSynthesize, pick: nodex.AfterSynthesize, to: []string{nodeCommit, nodeRespond}},
	}
	for _, b := range branches {
		pick := b.pick
		ends := make(map[string]bool, len(b.to))
		for _, to := range b.to {
			ends[to] = true
		}
		branch := compose.NewGraphBranch(
			func(ctx context.Context, in *nodex.GraphState) (string, error) {
				return pick(in), nil
			},
			ends,
		)
		if err := graph.AddBranch(b.from, branch); err != nil {
			return nil, fmt.Errorf("add branch after %s: %w", b.from, err)
		}
	}

	edges := [][2]string{
		{compose.START, nodeNormalize},
		{nodeNormalize, nodeSafety},
		{nodeRefuse, nodeRespond},
		{nodeFallback, nodeRespond},
		{nodeResolve, nodeExecute},
		{nodeExecute, nodeSynthesize},
		{nodeCommit, nodeRespond},
		{nodeRespond, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.chat"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
