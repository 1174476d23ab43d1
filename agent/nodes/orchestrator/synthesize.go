package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	toolx "github.com/tanpawarit/link-companion-assistant/agent/tool"
)

const (
	NodeCommit  = "commit"
	NodeRespond = "respond"
)

// Synthesize composes the answer. A synthesizer failure produces a degraded
// answer built from the execution result and skips the history commit.
func Synthesize(
	ctx context.Context,
	in *GraphState,
	synth contractx.Synthesizer,
	history contractx.HistoryStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sec := in.traceSection("synthesis")
	in.History = loadHistory(ctx, in, history)
	sec["history_entries"] = len(in.History)

	req := contractx.SynthesisRequest{
		Message:            in.Message,
		Actions:            in.Actions,
		History:            in.History,
		ToolResults:        in.Execution.ToolResults,
		ClarifyingQuestion: in.Execution.ClarifyingQuestion,
	}
	if in.Execution.RAGResult != nil {
		req.RAGHits = in.Execution.RAGResult.Hits
	}

	answer, err := synth.Compose(ctx, req)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("%w: empty answer", contractx.ErrModelInvoke)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", in.RequestID).
			Msg("synthesis failed, returning degraded answer")
		in.Degraded = true
		in.Answer = DegradedAnswer(in.Execution)
		sec["ok"] = false
		sec["error"] = err.Error()
		return in, nil
	}

	in.Answer = strings.TrimSpace(answer)
	sec["ok"] = true
	return in, nil
}

func AfterSynthesize(in *GraphState) string {
	if in == nil || in.Degraded {
		return NodeRespond
	}
	return NodeCommit
}

func loadHistory(ctx context.Context, in *GraphState, store contractx.HistoryStore) []contractx.Turn {
	sessionID := strings.TrimSpace(in.Request.SessionID)
	if store == nil || sessionID == "" {
		return []contractx.Turn{}
	}
	turns, err := store.History(ctx, sessionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", in.RequestID).
			Str("session_id", sessionID).
			Msg("history unavailable, synthesizing without it")
		in.traceSection("synthesis")["history_error"] = err.Error()
		return []contractx.Turn{}
	}
	return turns
}

// DegradedAnswer lists whatever the execution step produced. The clarifying
// question, when present, comes last.
func DegradedAnswer(exec contractx.ExecutionResult) string {
	var sb strings.Builder
	sb.WriteString("I couldn't put together a full answer right now.")

	if exec.ToolResults != nil {
		for _, call := range exec.ToolResults.Calls {
			sb.WriteString("\n- ")
			sb.WriteString(describeToolOutput(call))
		}
		if len(exec.ToolResults.Calls) == 0 && len(exec.ToolResults.Errors) > 0 {
			sb.WriteString("\n- The requested lookups could not run: ")
			sb.WriteString(strings.Join(exec.ToolResults.Errors, "; "))
		}
	}
	if exec.RAGResult != nil && len(exec.RAGResult.Hits) > 0 {
		sb.WriteString("\nRelevant documents:")
		for i, h := range exec.RAGResult.Hits {
			fmt.Fprintf(&sb, "\n[Source %d] %s (chunk %d)", i+1, h.DocID, h.ChunkID)
		}
	}
	if exec.ClarifyingQuestion != nil {
		sb.WriteString("\n")
		sb.WriteString(*exec.ClarifyingQuestion)
	}
	return sb.String()
}

func describeToolOutput(call contractx.ToolCallResult) string {
	switch out := call.Output.(type) {
	case toolx.FaultCodeOutput:
		if out.Found {
			return fmt.Sprintf("%s: %s. %s", out.Code, out.Title, out.Summary)
		}
		return fmt.Sprintf("%s: %s", call.Name, out.Error)
	case toolx.FitmentOutput:
		if out.Found {
			names := make([]string, 0, len(out.Matches))
			for _, m := range out.Matches {
				names = append(names, m.Name)
			}
			return "Possible ECU fitment: " + strings.Join(names, ", ")
		}
		return fmt.Sprintf("%s: %s", call.Name, out.Error)
	default:
		return call.Name + " returned a result"
	}
}
