package contract

type Mode string

const (
	ModeDirectAnswer Mode = "direct_answer"
	ModeRAG          Mode = "rag"
	ModeTool         Mode = "tool"
	ModeHybrid       Mode = "hybrid"
	ModeClarify      Mode = "clarify"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeDirectAnswer, ModeRAG, ModeTool, ModeHybrid, ModeClarify:
		return true
	default:
		return false
	}
}

type Action string

const (
	ActionDirectAnswer Action = "direct_answer"
	ActionRAG          Action = "rag"
	ActionTool         Action = "tool"
	ActionClarify      Action = "clarify"
)

func (a Action) Valid() bool {
	switch a {
	case ActionDirectAnswer, ActionRAG, ActionTool, ActionClarify:
		return true
	default:
		return false
	}
}

// HasAction reports whether want is present in actions.
func HasAction(actions []Action, want Action) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

const (
	RouteRefuseUnsafe = "refuse_unsafe"
	RouteFallback     = "fallback_direct_answer"
)

type RoutePlan struct {
	Mode               Mode       `json:"mode"`
	Actions            []Action   `json:"actions"`
	Confidence         float64    `json:"confidence"`
	Reason             string     `json:"reason"`
	RAGQuery           *string    `json:"rag_query,omitempty"`
	RAGCollections     []string   `json:"rag_collections,omitempty"`
	ToolCalls          []ToolCall `json:"tool_calls,omitempty"`
	ClarifyingQuestion *string    `json:"clarifying_question,omitempty"`
}

type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolCallResult struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Output any            `json:"output"`
}

type ToolResults struct {
	Calls  []ToolCallResult `json:"calls"`
	Errors []string         `json:"errors"`
}

type Hit struct {
	Score      float64 `json:"score"`
	DocID      string  `json:"doc_id"`
	Path       string  `json:"path"`
	ChunkID    int     `json:"chunk_id"`
	StartChar  int     `json:"start_char"`
	EndChar    int     `json:"end_char"`
	Text       string  `json:"text"`
	Collection string  `json:"collection,omitempty"`
}

type RAGResult struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	Hits  []Hit  `json:"hits"`
}

type CitationType string

const (
	CitationTool CitationType = "tool"
	CitationRAG  CitationType = "rag"
)

type Citation struct {
	Type CitationType `json:"type"`

	Tool  string         `json:"tool,omitempty"`
	Args  map[string]any `json:"args,omitempty"`
	Found *bool          `json:"found,omitempty"`

	DocID   string  `json:"doc_id,omitempty"`
	Path    string  `json:"path,omitempty"`
	ChunkID int     `json:"chunk_id,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

type ExecutionResult struct {
	Actions            []Action     `json:"actions"`
	ToolResults        *ToolResults `json:"tool_results,omitempty"`
	RAGResult          *RAGResult   `json:"rag_result,omitempty"`
	RAGError           string       `json:"rag_error,omitempty"`
	Citations          []Citation   `json:"citations"`
	ClarifyingQuestion *string      `json:"clarifying_question,omitempty"`
}

type Verdict struct {
	Blocked   bool   `json:"blocked"`
	RiskLevel string `json:"risk_level"`
	Domain    string `json:"domain"`
	Reason    string `json:"reason"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PlanInput is what the Orchestrator hands to the Router.
type PlanInput struct {
	Message             string
	ConversationSummary string
	UserProfile         map[string]any
	ECUContext          map[string]any
}

// PlanRequest is the minimised context forwarded to a PlanGenerator. Only key
// names of the profile and ECU maps are present.
type PlanRequest struct {
	Message             string   `json:"message"`
	ConversationSummary string   `json:"conversation_summary,omitempty"`
	UserProfileKeys     []string `json:"user_profile_keys"`
	ECUContextKeys      []string `json:"ecu_context_keys"`
}

type SynthesisRequest struct {
	Message            string       `json:"message"`
	Actions            []Action     `json:"actions"`
	History            []Turn       `json:"history,omitempty"`
	RAGHits            []Hit        `json:"rag_hits,omitempty"`
	ToolResults        *ToolResults `json:"tool_results,omitempty"`
	ClarifyingQuestion *string      `json:"clarifying_question,omitempty"`
}

type ChatRequest struct {
	Message             string           `json:"message"`
	SessionID           string           `json:"session_id"`
	ConversationSummary string           `json:"conversation_summary,omitempty"`
	UserProfile         map[string]any   `json:"user_profile,omitempty"`
	ECUContext          map[string]any   `json:"ecu_context,omitempty"`
	Attachments         []map[string]any `json:"attachments,omitempty"`
}

type Telemetry struct {
	LatencyMS int64  `json:"latency_ms"`
	Route     string `json:"route"`
	Blocked   bool   `json:"blocked"`
}

type ChatResponse struct {
	RequestID string         `json:"request_id"`
	Route     string         `json:"route"`
	Answer    string         `json:"answer"`
	Citations []Citation     `json:"citations"`
	Telemetry Telemetry      `json:"telemetry"`
	Trace     map[string]any `json:"trace"`
}
