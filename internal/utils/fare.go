package utils

import "busbooking/internal/domain"

// SleeperSurcharge multiplies the per-seat fare for sleeper berths.
const SleeperSurcharge = 1.25

// SegmentFare pro-rates a route base price by the share of stops travelled.
// boardOrder and dropOrder are route_stops order numbers; lastOrder is the final stop.
// When stop orders are unknown (zero) the full base price applies.
func SegmentFare(basePrice float64, boardOrder, dropOrder, firstOrder, lastOrder int) float64 {
	span := lastOrder - firstOrder
	if span <= 0 || boardOrder <= 0 || dropOrder <= 0 || dropOrder <= boardOrder {
		return domain.RoundMoney(basePrice)
	}
	travelled := dropOrder - boardOrder
	if travelled > span {
		travelled = span
	}
	return domain.RoundMoney(basePrice * float64(travelled) / float64(span))
}

// SeatFare applies the seat-type surcharge on top of a segment fare.
func SeatFare(segmentFare float64, seatType string) float64 {
	if seatType == "Sleeper" {
		return domain.RoundMoney(segmentFare * SleeperSurcharge)
	}
	return domain.RoundMoney(segmentFare)
}
