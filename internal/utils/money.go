package utils

import (
	"fmt"
	"strconv"
	"strings"

	"busbooking/internal/domain"
)

// FormatRupees renders an amount like "Rs. 1,23,456.50" using Indian digit grouping.
func FormatRupees(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	return fmt.Sprintf("%sRs. %s.%s", sign, groupIndian(whole), frac)
}

// ToPaise converts rupees to the smallest currency unit used by the payment gateway.
func ToPaise(amount float64) int64 {
	return int64(domain.RoundMoney(amount)*100 + 0.5)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
