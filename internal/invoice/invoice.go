// Package invoice renders transactions into fixed-width printable text.
// Rendering never mutates or persists anything; the output is handed to a
// print sink as an opaque blob.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpark_manager/internal/domain"
)

const lineWidth = 50
const dailyWidth = 60

// Render produces the invoice for a single completed stay.
func Render(tx domain.Transaction, now time.Time) string {
	var b strings.Builder
	banner := strings.Repeat("=", lineWidth)
	rule := strings.Repeat("-", lineWidth)

	status := "UNPAID"
	if tx.Paid {
		status = "PAID"
	}

	fmt.Fprintf(&b, "\n%s\n", banner)
	fmt.Fprintf(&b, "%s\n", center("INVOICE", lineWidth))
	fmt.Fprintf(&b, "%s\n", banner)
	fmt.Fprintf(&b, "Receipt: %s\n", uuid.NewString())
	fmt.Fprintf(&b, "Date: %s\n\n", now.In(domain.Timezone).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Spot Number: %d\n", tx.Spot)
	fmt.Fprintf(&b, "License Plate: %s\n\n", tx.Plate)
	fmt.Fprintf(&b, "Time In:  %s\n", tx.TimeIn)
	fmt.Fprintf(&b, "Time Out: %s\n\n", tx.TimeOut)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "Amount Due:     $%.2f\n", tx.Amount)
	fmt.Fprintf(&b, "Payment Status: %s\n", status)
	fmt.Fprintf(&b, "%s\n\n", rule)
	fmt.Fprintf(&b, "Comments: %s\n\n", tx.Comments)
	fmt.Fprintf(&b, "%s\n", banner)
	fmt.Fprintf(&b, "Thank you for your business!\n")
	fmt.Fprintf(&b, "%s\n", banner)
	return b.String()
}

// RenderDaily produces the rollup for one calendar day: every transaction
// whose exit time falls on that date in the fixed UTC+7 offset, with
// aligned columns and count/total/paid/unpaid totals.
func RenderDaily(transactions []domain.Transaction, day time.Time, now time.Time) string {
	day = day.In(domain.Timezone)
	selected := FilterByDay(transactions, day)

	var totalAmount, paidAmount float64
	for _, tx := range selected {
		totalAmount += tx.Amount
		if tx.Paid {
			paidAmount += tx.Amount
		}
	}
	unpaidAmount := totalAmount - paidAmount

	var b strings.Builder
	banner := strings.Repeat("=", dailyWidth)
	rule := strings.Repeat("-", dailyWidth)

	fmt.Fprintf(&b, "\n%s\n", banner)
	fmt.Fprintf(&b, "%s\n", center("DAILY INVOICE", dailyWidth))
	fmt.Fprintf(&b, "%s\n", center(day.Format("Monday, January 2, 2006"), dailyWidth))
	fmt.Fprintf(&b, "%s\n\n", banner)
	fmt.Fprintf(&b, "%-8s%-15s%-20s%-12s%-10s\n", "Spot", "Plate", "Time In", "Amount", "Status")
	fmt.Fprintf(&b, "%s\n", rule)
	for _, tx := range selected {
		status := "UNPAID"
		if tx.Paid {
			status = "PAID"
		}
		fmt.Fprintf(&b, "%-8d%-15s%-20s$%-11.2f%-10s\n",
			tx.Spot, tx.Plate, clip(tx.TimeIn, 16), tx.Amount, status)
	}
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "%-45s%d\n", "TOTAL TRANSACTIONS:", len(selected))
	fmt.Fprintf(&b, "%-45s$%10.2f\n", "Total Amount:", totalAmount)
	fmt.Fprintf(&b, "%-45s$%10.2f\n", "Paid Amount:", paidAmount)
	fmt.Fprintf(&b, "%-45s$%10.2f\n", "Unpaid Amount:", unpaidAmount)
	fmt.Fprintf(&b, "%s\n", banner)
	fmt.Fprintf(&b, "Generated: %s\n", now.In(domain.Timezone).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s\n", banner)
	return b.String()
}

// FilterByDay keeps the transactions whose exit time falls on the given
// calendar date in UTC+7. Entries with an unparseable exit time are
// skipped, matching the tolerance of the rest of the system toward
// corrupted timestamps.
func FilterByDay(transactions []domain.Transaction, day time.Time) []domain.Transaction {
	day = day.In(domain.Timezone)
	var out []domain.Transaction
	for _, tx := range transactions {
		t, err := domain.ParseTimestamp(tx.TimeOut)
		if err != nil {
			continue
		}
		t = t.In(domain.Timezone)
		if t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day() {
			out = append(out, tx)
		}
	}
	return out
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
