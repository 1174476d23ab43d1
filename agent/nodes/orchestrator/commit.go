package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	statex "github.com/tanpawarit/link-companion-assistant/agent/state"
)

// Commit appends the user message and the answer to the session transcript.
// A store failure is logged and traced; the answer is still returned.
func Commit(ctx context.Context, in *GraphState, store contractx.HistoryStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sec := in.traceSection("history")
	sessionID := strings.TrimSpace(in.Request.SessionID)
	if store == nil || sessionID == "" {
		sec["committed"] = false
		sec["reason"] = "no_session"
		return in, nil
	}

	turns, err := store.Append(ctx, sessionID, statex.Exchange(in.Message, in.Answer)...)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", in.RequestID).
			Str("session_id", sessionID).
			Msg("history commit failed")
		sec["committed"] = false
		sec["error"] = err.Error()
		return in, nil
	}

	sec["committed"] = true
	sec["entries"] = len(turns)
	return in, nil
}
