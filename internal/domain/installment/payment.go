package installment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a single schedule line
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// InstallmentPayment is one line of a plan's payment schedule.
// It is a value object within the InstallmentPlan aggregate, stored as JSONB.
type InstallmentPayment struct {
	DueDate    time.Time       `json:"due_date"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Status     PaymentStatus   `json:"status"`
}

// IsPaid returns true if the line has been settled in full
func (p *InstallmentPayment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// IsSettleable returns true if the line can still accept payments
func (p *InstallmentPayment) IsSettleable() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusOverdue
}

// Outstanding returns the unpaid portion of the line, never negative
func (p *InstallmentPayment) Outstanding() decimal.Decimal {
	out := p.AmountDue.Sub(p.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// PaymentSchedule is the ordered list of schedule lines, stored as JSONB
type PaymentSchedule []InstallmentPayment

// Value implements driver.Valuer for GORM to store as JSONB
func (s PaymentSchedule) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (s *PaymentSchedule) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentSchedule{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentSchedule: unsupported type")
	}

	if len(bytes) == 0 {
		*s = PaymentSchedule{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// TotalDue returns the sum of all line amounts
func (s PaymentSchedule) TotalDue() decimal.Decimal {
	total := decimal.Zero
	for i := range s {
		total = total.Add(s[i].AmountDue)
	}
	return total
}

// TotalPaid returns the sum of all amounts received across lines
func (s PaymentSchedule) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for i := range s {
		total = total.Add(s[i].AmountPaid)
	}
	return total
}

// Outstanding returns the sum of unpaid portions across unsettled lines
func (s PaymentSchedule) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for i := range s {
		if !s[i].IsPaid() {
			total = total.Add(s[i].Outstanding())
		}
	}
	return total
}

// CountByStatus returns how many lines currently hold the given status
func (s PaymentSchedule) CountByStatus(status PaymentStatus) int {
	count := 0
	for i := range s {
		if s[i].Status == status {
			count++
		}
	}
	return count
}

// UnpaidCount returns the number of lines not yet settled in full
func (s PaymentSchedule) UnpaidCount() int {
	return len(s) - s.CountByStatus(PaymentStatusPaid)
}

// NextDueDate returns the earliest due date among pending lines, or nil
// when no pending line remains
func (s PaymentSchedule) NextDueDate() *time.Time {
	var next *time.Time
	for i := range s {
		if s[i].Status != PaymentStatusPending {
			continue
		}
		if next == nil || s[i].DueDate.Before(*next) {
			due := s[i].DueDate
			next = &due
		}
	}
	return next
}

// NextUnpaidDueDate returns the earliest due date among unsettled lines
// (pending or overdue), or nil when the schedule is fully paid
func (s PaymentSchedule) NextUnpaidDueDate() *time.Time {
	var next *time.Time
	for i := range s {
		if s[i].IsPaid() {
			continue
		}
		if next == nil || s[i].DueDate.Before(*next) {
			due := s[i].DueDate
			next = &due
		}
	}
	return next
}

// LastDueDate returns the latest due date across all lines, zero when empty
func (s PaymentSchedule) LastDueDate() time.Time {
	var last time.Time
	for i := range s {
		if s[i].DueDate.After(last) {
			last = s[i].DueDate
		}
	}
	return last
}
