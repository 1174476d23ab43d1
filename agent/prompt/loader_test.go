package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Router == "" || set.Synthesizer == "" {
		t.Fatalf("empty prompt loaded: %+v", set)
	}
	if !strings.Contains(set.Router, "{tools}") {
		t.Fatalf("router prompt must expose the tools placeholder")
	}
	if strings.ContainsAny(set.Synthesizer, "{}") {
		t.Fatalf("synthesizer prompt must not contain template braces")
	}
}
