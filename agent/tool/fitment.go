package tool

import (
	"regexp"
	"sort"
	"strings"
)

const (
	ToolLookupECUFitment = "lookup_ecu_fitment"

	fitmentResultLimit     = 5
	fitmentMinTokenOverlap = 3
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

type FitmentArgs struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	EngineDetail *string `json:"engine_detail,omitempty"`
	Year         *yearID `json:"year,omitempty"`
}

type FitmentQuery struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	EngineDetail *string `json:"engine_detail"`
	Year         *int    `json:"year"`
}

type FitmentMatch struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	FromYearID   int    `json:"from_year_id"`
	ToYearID     int    `json:"to_year_id"`
	EngineDetail string `json:"engine_detail"`
	UDEF         any    `json:"UDEF,omitempty"`
	FitmentNotes string `json:"fitment_notes"`
	Concat       string `json:"concat"`
}

type FitmentOutput struct {
	Found   bool           `json:"found"`
	Query   FitmentQuery   `json:"query"`
	Matches []FitmentMatch `json:"matches"`
	Error   string         `json:"error,omitempty"`
}

func (o FitmentOutput) IsFound() bool { return o.Found }

// LookupECUFitment filters rows by make/model, optional engine detail overlap
// and optional year, narrowest year range first.
func LookupECUFitment(rows []FitmentRecord, q FitmentQuery) FitmentOutput {
	makeL := strings.ToLower(strings.TrimSpace(q.Make))
	modelL := strings.ToLower(strings.TrimSpace(q.Model))

	var queryTokens map[string]struct{}
	if q.EngineDetail != nil && strings.TrimSpace(*q.EngineDetail) != "" {
		queryTokens = tokens(*q.EngineDetail)
	}

	matches := make([]FitmentRecord, 0, len(rows))
	for _, r := range rows {
		if strings.ToLower(strings.TrimSpace(r.Make)) != makeL {
			continue
		}
		if strings.ToLower(strings.TrimSpace(r.Model)) != modelL {
			continue
		}
		if queryTokens != nil && overlap(queryTokens, tokens(r.EngineDetail)) < fitmentMinTokenOverlap {
			continue
		}
		if q.Year != nil {
			from, to := r.yearRange()
			if *q.Year < from || *q.Year > to {
				continue
			}
		}
		matches = append(matches, r)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return span(matches[i]) < span(matches[j])
	})

	if len(matches) == 0 {
		return FitmentOutput{
			Found:   false,
			Query:   q,
			Matches: []FitmentMatch{},
			Error:   "No matching fitment records in the demo dataset.",
		}
	}

	if len(matches) > fitmentResultLimit {
		matches = matches[:fitmentResultLimit]
	}
	trimmed := make([]FitmentMatch, 0, len(matches))
	for _, r := range matches {
		trimmed = append(trimmed, FitmentMatch{
			SKU:          r.SKU,
			Name:         r.Name,
			Make:         r.Make,
			Model:        r.Model,
			FromYearID:   int(r.FromYearID),
			ToYearID:     int(r.ToYearID),
			EngineDetail: r.EngineDetail,
			UDEF:         r.UDEF,
			FitmentNotes: r.notes(),
			Concat:       r.Concat,
		})
	}

	return FitmentOutput{
		Found:   true,
		Query:   q,
		Matches: trimmed,
	}
}

func span(r FitmentRecord) int {
	from, to := r.yearRange()
	return to - from
}

func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		out[tok] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
