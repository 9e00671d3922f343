package domain

import (
	"math"

	"busbooking/internal/domain/models"
)

// MinCancellationHours is the cut-off before departure after which cancellation is refused.
const MinCancellationHours = 2.0

// PenaltyBreakdown is the result of applying the cancellation tiers to a booking total.
type PenaltyBreakdown struct {
	HoursUntilTravel float64 `json:"hoursUntilTravel"`
	PenaltyPercent   float64 `json:"penaltyPercent"`
	PenaltyAmount    float64 `json:"penaltyAmount"`
	RefundAmount     float64 `json:"refundAmount"`
}

// PenaltyPercent maps hours remaining before departure to the forfeited percentage.
func PenaltyPercent(hoursUntilTravel float64) float64 {
	switch {
	case hoursUntilTravel >= 24:
		return 10
	case hoursUntilTravel >= 12:
		return 25
	case hoursUntilTravel >= 6:
		return 50
	case hoursUntilTravel >= 2:
		return 75
	default:
		return 100
	}
}

// ComputePenalty applies PenaltyPercent to total; refund is what remains.
func ComputePenalty(total, hoursUntilTravel float64) PenaltyBreakdown {
	pct := PenaltyPercent(hoursUntilTravel)
	penalty := RoundMoney(total * pct / 100)
	return PenaltyBreakdown{
		HoursUntilTravel: math.Round(hoursUntilTravel*100) / 100,
		PenaltyPercent:   pct,
		PenaltyAmount:    penalty,
		RefundAmount:     RoundMoney(total - penalty),
	}
}

// CheckCancellable returns a ValidationError when the booking can no longer be cancelled.
func CheckCancellable(status models.BookingStatus, hoursUntilTravel float64) error {
	switch status {
	case models.BookingCancelled:
		return ValidationError{Field: "booking", Msg: "booking is already cancelled"}
	case models.BookingExpired:
		return ValidationError{Field: "booking", Msg: "booking reservation has expired"}
	}
	if !status.CanTransitionTo(models.BookingCancelled) {
		return ValidationError{Field: "booking", Msg: "booking cannot be cancelled in status " + string(status)}
	}
	if hoursUntilTravel <= MinCancellationHours {
		return ValidationError{Field: "booking", Msg: "cancellation is not allowed within 2 hours of departure"}
	}
	return nil
}

// RefundMethodLabel describes where and how fast the refund lands.
func RefundMethodLabel(paymentMethod string) string {
	switch paymentMethod {
	case models.MethodUPI:
		return "UPI - refund credited within 1-3 business days"
	case models.MethodCard:
		return "Card - refund credited within 5-7 business days"
	case models.MethodBankTransfer:
		return "Bank Transfer - refund credited within 3-5 business days"
	default:
		return "Original Payment Method"
	}
}

// RoundMoney rounds to 2 decimals.
func RoundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}
