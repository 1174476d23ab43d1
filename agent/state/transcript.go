package state

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// MaxHistoryEntries bounds a session transcript. Oldest entries are evicted first.
const MaxHistoryEntries = 10

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidTurn    = errors.New("turn role must be user or assistant")
)

// Truncate keeps the newest MaxHistoryEntries turns. The result never aliases
// the input.
func Truncate(turns []contractx.Turn) []contractx.Turn {
	start := 0
	if len(turns) > MaxHistoryEntries {
		start = len(turns) - MaxHistoryEntries
	}
	out := make([]contractx.Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}

// Exchange is the pair committed after a successful answer.
func Exchange(message, answer string) []contractx.Turn {
	return []contractx.Turn{
		{Role: contractx.RoleUser, Content: message},
		{Role: contractx.RoleAssistant, Content: answer},
	}
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

func validateTurns(turns []contractx.Turn) error {
	for _, t := range turns {
		if t.Role != contractx.RoleUser && t.Role != contractx.RoleAssistant {
			return ErrInvalidTurn
		}
	}
	return nil
}
