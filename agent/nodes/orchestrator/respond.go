package orchestratornode

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// Respond assembles the envelope returned to the caller.
func Respond(in *GraphState, now time.Time) (*contractx.ChatResponse, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	citations := in.Execution.Citations
	if citations == nil {
		citations = []contractx.Citation{}
	}

	latency := now.Sub(in.StartedAt).Milliseconds()
	if latency < 0 {
		latency = 0
	}

	return &contractx.ChatResponse{
		RequestID: in.RequestID,
		Route:     in.Route,
		Answer:    in.Answer,
		Citations: citations,
		Telemetry: contractx.Telemetry{
			LatencyMS: latency,
			Route:     in.Route,
			Blocked:   in.Verdict.Blocked,
		},
		Trace: in.Trace,
	}, nil
}
