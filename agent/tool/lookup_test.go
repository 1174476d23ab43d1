package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFaultCode(t *testing.T) {
	t.Parallel()

	db := map[string]FaultCodeRecord{
		"P0123": {
			Title:        "Throttle Position Sensor Circuit High",
			Summary:      "TPS signal above expected range.",
			CommonCauses: []string{"Damaged wiring"},
			SafeChecks:   []string{"Inspect connector"},
		},
	}

	found := LookupFaultCode(db, " p0123 ")
	assert.True(t, found.Found)
	assert.Equal(t, "P0123", found.Code)
	assert.Equal(t, "Throttle Position Sensor Circuit High", found.Title)
	assert.Equal(t, "TPS signal above expected range.", found.Summary)
	assert.Equal(t, []string{"Damaged wiring"}, found.CommonCauses)
	assert.Equal(t, []string{"Inspect connector"}, found.SafeChecks)
	assert.Empty(t, found.Error)

	invalid := LookupFaultCode(db, "ZZZZZ")
	assert.False(t, invalid.Found)
	assert.Contains(t, invalid.Error, "Invalid code format")

	missing := LookupFaultCode(db, "P9999")
	assert.False(t, missing.Found)
	assert.Contains(t, missing.Error, "not found")
}

func supraRows() []FitmentRecord {
	return []FitmentRecord{
		{SKU: "wide", Make: "Toyota", Model: "Supra", FromYearID: 1986, ToYearID: 2002, EngineDetail: "7M-GTE 2JZ-GTE turbo 3.0L"},
		{SKU: "narrow", Make: "Toyota", Model: "Supra", FromYearID: 1993, ToYearID: 1998, EngineDetail: "2JZ-GTE 3.0L twin turbo", FitmentNotesAlt: "Plug-in"},
		{SKU: "open-ended", Make: "toyota", Model: "SUPRA", FromYearID: 1990, EngineDetail: "2JZ-GE 3.0L"},
		{SKU: "late", Make: "Toyota", Model: "Supra", FromYearID: 2019, ToYearID: 2023, EngineDetail: "B58 3.0L turbo"},
		{SKU: "other", Make: "Nissan", Model: "Skyline", FromYearID: 1993, ToYearID: 1998, EngineDetail: "RB26DETT"},
	}
}

func TestLookupECUFitmentOrdersByRangeWidth(t *testing.T) {
	t.Parallel()

	year := 1995
	out := LookupECUFitment(supraRows(), FitmentQuery{Make: "Toyota", Model: "Supra", Year: &year})
	require.True(t, out.Found)
	require.Len(t, out.Matches, 3)
	assert.Equal(t, "narrow", out.Matches[0].SKU)
	assert.Equal(t, "Plug-in", out.Matches[0].FitmentNotes)
	assert.Equal(t, "wide", out.Matches[1].SKU)
	assert.Equal(t, "open-ended", out.Matches[2].SKU)
}

func TestLookupECUFitmentEngineOverlap(t *testing.T) {
	t.Parallel()

	engine := "2JZ GTE twin turbo"
	out := LookupECUFitment(supraRows(), FitmentQuery{Make: "TOYOTA", Model: "supra", EngineDetail: &engine})
	require.True(t, out.Found)
	require.Len(t, out.Matches, 2)
	assert.Equal(t, "narrow", out.Matches[0].SKU)
	assert.Equal(t, "wide", out.Matches[1].SKU)
}

func TestLookupECUFitmentNoMatchIsNotAnError(t *testing.T) {
	t.Parallel()

	year := 1970
	out := LookupECUFitment(supraRows(), FitmentQuery{Make: "Toyota", Model: "Supra", Year: &year})
	assert.False(t, out.Found)
	assert.Empty(t, out.Matches)
	assert.NotEmpty(t, out.Error)
}

func TestLookupECUFitmentCapsResults(t *testing.T) {
	t.Parallel()

	rows := make([]FitmentRecord, 0, 8)
	for i := 0; i < 8; i++ {
		rows = append(rows, FitmentRecord{SKU: string(rune('a' + i)), Make: "Mazda", Model: "RX-7", FromYearID: yearID(1980 + i), ToYearID: 2000})
	}
	out := LookupECUFitment(rows, FitmentQuery{Make: "Mazda", Model: "RX-7"})
	require.True(t, out.Found)
	require.Len(t, out.Matches, fitmentResultLimit)
	assert.Equal(t, "h", out.Matches[0].SKU)
}
