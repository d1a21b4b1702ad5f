package model

import (
	"math"
	"testing"
)

// TestTargetSummaryRates tests the derived counters on target summaries.
func TestTargetSummaryRates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		summary      TargetSummary
		expectedFail int
		expectedRate float64
	}{
		{
			name:         "all checks succeeded",
			summary:      TargetSummary{Checks: 10, Succeeded: 10},
			expectedFail: 0,
			expectedRate: 1.0,
		},
		{
			name:         "half succeeded",
			summary:      TargetSummary{Checks: 4, Succeeded: 2},
			expectedFail: 2,
			expectedRate: 0.5,
		},
		{
			name:         "none succeeded",
			summary:      TargetSummary{Checks: 3, Succeeded: 0},
			expectedFail: 3,
			expectedRate: 0.0,
		},
		{
			name:         "no checks yet",
			summary:      TargetSummary{},
			expectedFail: 0,
			expectedRate: 0.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.summary.Failed(); got != tc.expectedFail {
				t.Errorf("Failed() = %d, expected %d", got, tc.expectedFail)
			}
			if got := tc.summary.SuccessRate(); math.Abs(got-tc.expectedRate) > 1e-9 {
				t.Errorf("SuccessRate() = %f, expected %f", got, tc.expectedRate)
			}
		})
	}
}
