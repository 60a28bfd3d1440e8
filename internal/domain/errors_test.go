package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrappers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", NotFoundf("tontine %d", 7), ErrNotFound},
		{"conflict", Conflictf("invite %d already %s", 3, "accepted"), ErrConflict},
		{"invalid", Invalidf("amount must be positive"), ErrInvalid},
		{"forbidden", Forbiddenf("user %d is not an admin", 9), ErrForbidden},
		{"expired", Expiredf("invite %d", 4), ErrExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.want) {
				t.Fatalf("%v does not wrap %v", tc.err, tc.want)
			}
		})
	}
}

func TestWrappedErrorSurvivesFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("record contribution: %w", Conflictf("contribution %d is %s", 5, "completed"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("double-wrapped error lost its sentinel: %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("error matched the wrong sentinel: %v", err)
	}
}

func TestValidFrequency(t *testing.T) {
	for _, f := range []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly} {
		if !ValidFrequency(f) {
			t.Fatalf("%q rejected", f)
		}
	}
	for _, f := range []string{"", "biweekly", "Monthly"} {
		if ValidFrequency(f) {
			t.Fatalf("%q accepted", f)
		}
	}
}
