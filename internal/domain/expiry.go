package domain

import (
	"fmt"
	"time"
)

type ExpiryStatus string

const (
	ExpiryGood         ExpiryStatus = "good"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpiryExpired      ExpiryStatus = "expired"
)

// ExpiringSoonDays is the inclusive upper bound of the expiring_soon window.
const ExpiringSoonDays = 30

type StockStatus string

const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low"
	StockAvailable  StockStatus = "available"
)

// LowStockThreshold is the smallest available quantity reported as available.
const LowStockThreshold = 10

// ClassifyExpiry maps an expiry date to its status relative to today, along
// with the signed number of days until expiry.
func ClassifyExpiry(expiryDate, today time.Time) (ExpiryStatus, int) {
	days := DaysBetween(today, expiryDate)
	switch {
	case days < 0:
		return ExpiryExpired, days
	case days <= ExpiringSoonDays:
		return ExpiryExpiringSoon, days
	default:
		return ExpiryGood, days
	}
}

func ClassifyStock(available int) StockStatus {
	switch {
	case available <= 0:
		return StockOutOfStock
	case available < LowStockThreshold:
		return StockLow
	default:
		return StockAvailable
	}
}

// DescribeExpiry renders a remaining or overdue day count for display.
func DescribeExpiry(days int) string {
	switch {
	case days == 0:
		return "expires today"
	case days > 0:
		return fmt.Sprintf("expires in %d %s", days, pluralDays(days))
	default:
		return fmt.Sprintf("expired %d %s ago", -days, pluralDays(-days))
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
