package appointment

import "testing"

func TestCanTransitionStatus(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusConfirmed, StatusConfirmed, false},
	}

	for _, c := range cases {
		if got := CanTransitionStatus(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionStatus(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCanTransitionPaymentForwardOnly(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentPartial, true},
		{PaymentPending, PaymentPaid, true},
		{PaymentPartial, PaymentPaid, true},
		{PaymentPaid, PaymentPartial, false},
		{PaymentPartial, PaymentPending, false},
		{PaymentPaid, PaymentPaid, false},
		{PaymentStatus("REFUNDED"), PaymentPaid, false},
		{PaymentPending, PaymentStatus("REFUNDED"), false},
	}

	for _, c := range cases {
		if got := CanTransitionPayment(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionPayment(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCanTransitionTreatmentForwardOnly(t *testing.T) {
	cases := []struct {
		from, to TreatmentStatus
		want     bool
	}{
		{TreatmentPending, TreatmentPartial, true},
		{TreatmentPartial, TreatmentCompleted, true},
		{TreatmentPending, TreatmentCompleted, true},
		{TreatmentCompleted, TreatmentPartial, false},
		{TreatmentPartial, TreatmentPartial, false},
	}

	for _, c := range cases {
		if got := CanTransitionTreatment(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionTreatment(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
