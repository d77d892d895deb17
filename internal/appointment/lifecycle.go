package appointment

// The three status axes are independent; each has its own small transition
// table. Moving backward is not a defined operation on any axis.

func CanTransitionStatus(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case StatusConfirmed:
		return to == StatusCancelled || to == StatusCompleted
	}
	return false
}

var paymentRank = map[PaymentStatus]int{
	PaymentPending: 0,
	PaymentPartial: 1,
	PaymentPaid:    2,
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	fromRank, ok := paymentRank[from]
	if !ok {
		return false
	}
	toRank, ok := paymentRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

var treatmentRank = map[TreatmentStatus]int{
	TreatmentPending:   0,
	TreatmentPartial:   1,
	TreatmentCompleted: 2,
}

func CanTransitionTreatment(from, to TreatmentStatus) bool {
	fromRank, ok := treatmentRank[from]
	if !ok {
		return false
	}
	toRank, ok := treatmentRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
