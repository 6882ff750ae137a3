package models

import "testing"

func TestInvestorPayout_CanTransition(t *testing.T) {
	cases := []struct {
		from PayoutStatus
		to   PayoutStatus
		want bool
	}{
		{PayoutStatusDraft, PayoutStatusPending, true},
		{PayoutStatusDraft, PayoutStatusCancelled, true},
		{PayoutStatusDraft, PayoutStatusPaid, false},
		{PayoutStatusPending, PayoutStatusPaid, true},
		{PayoutStatusPending, PayoutStatusCancelled, true},
		{PayoutStatusPending, PayoutStatusDraft, false},
		{PayoutStatusPaid, PayoutStatusCancelled, false},
		{PayoutStatusPaid, PayoutStatusPending, false},
		{PayoutStatusCancelled, PayoutStatusPending, false},
		{PayoutStatusCancelled, PayoutStatusPaid, false},
	}
	for _, tc := range cases {
		p := InvestorPayout{CurrentStatus: tc.from}
		if got := p.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
