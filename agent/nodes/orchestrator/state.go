package orchestratornode

import (
	"sort"
	"strings"
	"time"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// GraphState is threaded through every node of the chat graph.
type GraphState struct {
	RequestID string
	StartedAt time.Time

	Request contractx.ChatRequest
	Message string

	Verdict contractx.Verdict
	Plan    *contractx.RoutePlan
	Route   string
	Actions []contractx.Action

	Execution contractx.ExecutionResult
	History   []contractx.Turn

	Answer   string
	Degraded bool

	Trace map[string]any
}

func (s *GraphState) traceSection(name string) map[string]any {
	if s.Trace == nil {
		s.Trace = map[string]any{}
	}
	sec, ok := s.Trace[name].(map[string]any)
	if !ok {
		sec = map[string]any{}
		s.Trace[name] = sec
	}
	return sec
}

// Normalize trims the message and opens the trace. An empty message is allowed.
func Normalize(in contractx.ChatRequest, requestID string, now time.Time) (*GraphState, error) {
	message := strings.TrimSpace(in.Message)

	return &GraphState{
		RequestID: requestID,
		StartedAt: now,
		Request:   in,
		Message:   message,
		Trace: map[string]any{
			"input": map[string]any{
				"message_chars":            len([]rune(message)),
				"has_session":              strings.TrimSpace(in.SessionID) != "",
				"has_conversation_summary": strings.TrimSpace(in.ConversationSummary) != "",
				"user_profile_keys":        sortedKeys(in.UserProfile),
				"ecu_context_keys":         sortedKeys(in.ECUContext),
				"num_attachments":          len(in.Attachments),
			},
			"safety":    map[string]any{},
			"routing":   map[string]any{},
			"execution": map[string]any{},
		},
	}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
