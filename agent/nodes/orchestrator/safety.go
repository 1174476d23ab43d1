package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

const (
	NodeRefuse = "refuse"
	NodeRoute  = "route"
)

func Safety(in *GraphState, gate contractx.SafetyChecker) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Verdict = gate.Check(in.Message)
	sec := in.traceSection("safety")
	sec["deterministic"] = in.Verdict

	if in.Verdict.Blocked {
		log.Warn().
			Str("request_id", in.RequestID).
			Str("domain", in.Verdict.Domain).
			Str("reason", in.Verdict.Reason).
			Msg("message blocked by safety gate")
		return in, nil
	}

	sec["llm_classifier"] = map[string]any{"skipped": true, "reason": "not_configured"}
	return in, nil
}

// AfterSafety picks the next node once the verdict is known.
func AfterSafety(in *GraphState) string {
	if in != nil && in.Verdict.Blocked {
		return NodeRefuse
	}
	return NodeRoute
}

func Refuse(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Route = contractx.RouteRefuseUnsafe
	in.Answer = RefusalAnswer(in.Verdict.Domain)
	return in, nil
}

// RefusalAnswer depends on the verdict domain only.
func RefusalAnswer(domain string) string {
	return fmt.Sprintf("Unfortunately, your request contains wording that is associated with malicious prompt injection (domain: %s). "+
		"I am unable to assist any further with this question. "+
		"I can help you with a different question, or feel free to contact our support team.", domain)
}
