package cli

import (
	"bytes"
	"strings"
	"testing"

	"harvester/internal/domain"
	"harvester/internal/fleet"
)

func testOutput(jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var w, errW bytes.Buffer
	return &Output{jsonMode: jsonMode, w: &w, errW: &errW}, &w, &errW
}

func TestOutputResultsTable(t *testing.T) {
	out, w, errW := testOutput(false)

	out.Results([]domain.OperationResult{
		{Identifier: "a@example.com", Status: true},
		{Identifier: "b@example.com", Status: false},
	})

	got := w.String()
	if !strings.Contains(got, "EMAIL") || !strings.Contains(got, "STATUS") {
		t.Errorf("missing headers:\n%s", got)
	}
	if !strings.Contains(got, "a@example.com") || !strings.Contains(got, "OK") {
		t.Errorf("missing success row:\n%s", got)
	}
	if !strings.Contains(got, "b@example.com") || !strings.Contains(got, "FAILED") {
		t.Errorf("missing failure row:\n%s", got)
	}
	// Сводка идёт в stderr, не в данные.
	if strings.Contains(got, "succeeded") {
		t.Errorf("summary leaked into stdout:\n%s", got)
	}
	if summary := errW.String(); summary != "1/2 succeeded\n" {
		t.Errorf("summary = %q", summary)
	}
}

func TestOutputResultsJSON(t *testing.T) {
	out, w, errW := testOutput(true)

	out.Results([]domain.OperationResult{
		{Identifier: "a@example.com", Status: true},
	})

	if !strings.Contains(w.String(), `"a@example.com"`) {
		t.Errorf("json output missing identifier:\n%s", w.String())
	}
	if errW.String() != "1/1 succeeded\n" {
		t.Errorf("summary = %q", errW.String())
	}
}

func TestOutputStatsPlaceholders(t *testing.T) {
	out, w, _ := testOutput(false)

	out.Stats([]fleet.StatsReport{
		{
			Email: "a@example.com",
			Data: domain.StatisticData{
				Success:       true,
				RewardPoint:   &domain.RewardPoint{Points: 10, RegisterPoints: 2.5},
				ReferralPoint: &domain.ReferralPoint{Commission: 1.25},
			},
		},
		{Email: "b@example.com"},
	})

	got := w.String()
	if !strings.Contains(got, "12.50") || !strings.Contains(got, "1.25") {
		t.Errorf("missing point totals:\n%s", got)
	}
	var failedRow string
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "b@example.com") {
			failedRow = line
		}
	}
	if !strings.Contains(failedRow, "FAILED") || !strings.Contains(failedRow, "-") {
		t.Errorf("failed report must show dashes, got %q", failedRow)
	}
}
