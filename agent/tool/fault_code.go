package tool

import (
	"regexp"
	"strings"
)

const ToolLookupFaultCode = "lookup_fault_code"

var faultCodePattern = regexp.MustCompile(`^[A-Z]\d{4}$`)

type FaultCodeArgs struct {
	Code string `json:"code"`
}

type FaultCodeOutput struct {
	Found        bool     `json:"found"`
	Code         string   `json:"code"`
	Title        string   `json:"title,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	CommonCauses []string `json:"common_causes,omitempty"`
	SafeChecks   []string `json:"safe_checks,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func (o FaultCodeOutput) IsFound() bool { return o.Found }

// LookupFaultCode never fails: bad format and unknown codes are not-found results.
func LookupFaultCode(db map[string]FaultCodeRecord, code string) FaultCodeOutput {
	code = strings.ToUpper(strings.TrimSpace(code))

	if !faultCodePattern.MatchString(code) {
		return FaultCodeOutput{
			Found: false,
			Code:  code,
			Error: "Invalid code format. Expected like P0123.",
		}
	}

	item, ok := db[code]
	if !ok {
		return FaultCodeOutput{
			Found: false,
			Code:  code,
			Error: "Code not found in the current demo database.",
		}
	}

	causes := item.CommonCauses
	if causes == nil {
		causes = []string{}
	}
	checks := item.SafeChecks
	if checks == nil {
		checks = []string{}
	}
	return FaultCodeOutput{
		Found:        true,
		Code:         code,
		Title:        item.Title,
		Summary:      item.Summary,
		CommonCauses: causes,
		SafeChecks:   checks,
	}
}
