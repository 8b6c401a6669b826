package installment

import (
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Amortization errors
var (
	ErrInvalidTerm      = shared.NewDomainError("INVALID_TERM", "Number of installments must be at least 1")
	ErrInvalidPrincipal = shared.NewDomainError("INVALID_PRINCIPAL", "Financed principal must be positive")
	ErrInvalidRate      = shared.NewDomainError("INVALID_RATE", "Interest rate must be between 0 and 100 percent")
)

var hundred = decimal.NewFromInt(100)

// TotalPayable returns the principal plus simple add-on interest for the
// full annual rate. Interest does not compound: a 12% rate on 1000 yields
// 120 of interest regardless of term length.
func TotalPayable(principal, annualRatePercent decimal.Decimal) decimal.Decimal {
	interest := principal.Mul(annualRatePercent).Div(hundred)
	return principal.Add(interest)
}

// InstallmentAmount computes the per-period payment for the given principal,
// annual rate and term, rounded half-up to currency precision.
func InstallmentAmount(principal, annualRatePercent decimal.Decimal, months int) (decimal.Decimal, error) {
	if months <= 0 {
		return decimal.Zero, ErrInvalidTerm
	}
	if !principal.IsPositive() {
		return decimal.Zero, ErrInvalidPrincipal
	}
	total := TotalPayable(principal, annualRatePercent)
	return total.Div(decimal.NewFromInt(int64(months))).Round(2), nil
}

// GenerateSchedule produces the full payment schedule for a newly financed
// principal. Due dates fall one calendar month apart starting one month after
// startDate; the day-of-month is preserved where the target month has it,
// otherwise clamped to the month's last day. The final line absorbs the
// rounding remainder so the schedule sums exactly to the total payable.
func GenerateSchedule(principal, annualRatePercent decimal.Decimal, months int, startDate time.Time) (PaymentSchedule, error) {
	firstDue := AddMonths(startDate, 1)
	return generateScheduleAt(principal, annualRatePercent, months, startDate, firstDue, 1)
}

// generateScheduleAt builds months lines with the first due on firstDue and
// subsequent dues anchored to the same day-of-month. anchor carries the
// original date whose day-of-month seeds the clamping; monthOffset is how
// many months firstDue sits past the anchor.
func generateScheduleAt(principal, annualRatePercent decimal.Decimal, months int, anchor time.Time, firstDue time.Time, monthOffset int) (PaymentSchedule, error) {
	amount, err := InstallmentAmount(principal, annualRatePercent, months)
	if err != nil {
		return nil, err
	}

	total := TotalPayable(principal, annualRatePercent).Round(2)
	schedule := make(PaymentSchedule, months)
	for k := 0; k < months; k++ {
		due := firstDue
		if k > 0 {
			due = AddMonths(anchor, monthOffset+k)
		}
		lineAmount := amount
		if k == months-1 {
			// Penny reconciliation: the last line takes whatever is left
			// so the schedule sums to the total payable exactly.
			lineAmount = total.Sub(amount.Mul(decimal.NewFromInt(int64(months - 1))))
		}
		schedule[k] = InstallmentPayment{
			DueDate:    due,
			AmountDue:  lineAmount,
			AmountPaid: decimal.Zero,
			Status:     PaymentStatusPending,
		}
	}
	return schedule, nil
}

// GenerateScheduleFrom produces a replacement schedule whose first line is
// due on firstDue, for re-amortizing the unpaid remainder of a plan.
func GenerateScheduleFrom(principal, annualRatePercent decimal.Decimal, months int, firstDue time.Time) (PaymentSchedule, error) {
	return generateScheduleAt(principal, annualRatePercent, months, firstDue, firstDue, 0)
}

// AddMonths advances t by the given number of calendar months, preserving the
// day-of-month where the target month has it and clamping to the last day of
// the month otherwise (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
