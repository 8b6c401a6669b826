package installment

import (
	"testing"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, code, derr.Code)
}

func testProducts(prices ...string) ProductLines {
	lines := make(ProductLines, 0, len(prices))
	for i, p := range prices {
		lines = append(lines, ProductLine{
			ProductID: uuid.New(),
			Name:      "Product " + string(rune('A'+i)),
			UnitPrice: d(p),
			Quantity:  1,
		})
	}
	return lines
}

func createTestPlan(t *testing.T) *InstallmentPlan {
	products := testProducts("1000")
	plan, err := NewInstallmentPlan(
		uuid.New(),
		"IP-2025-001",
		uuid.New(),
		uuid.New(),
		products,
		d("1000"),
		decimal.Zero,
		10,
		d("12"),
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return plan
}

// ============================================
// PlanStatus Tests
// ============================================

func TestPlanStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  PlanStatus
		isValid bool
	}{
		{PlanStatusActive, true},
		{PlanStatusCompleted, true},
		{PlanStatusDefaulted, true},
		{PlanStatusCancelled, true},
		{PlanStatus("INVALID"), false},
		{PlanStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestPlanStatus_IsTerminal(t *testing.T) {
	assert.False(t, PlanStatusActive.IsTerminal())
	assert.True(t, PlanStatusCompleted.IsTerminal())
	assert.True(t, PlanStatusDefaulted.IsTerminal())
	assert.True(t, PlanStatusCancelled.IsTerminal())
}

// ============================================
// NewInstallmentPlan Tests
// ============================================

func TestNewInstallmentPlan_Success(t *testing.T) {
	plan := createTestPlan(t)

	assert.Equal(t, PlanStatusActive, plan.Status)
	assert.Equal(t, 10, plan.NumberOfInstallments)
	assert.Len(t, plan.Payments, 10)
	assert.True(t, plan.TotalPaid.IsZero())
	assert.True(t, plan.RemainingBalance.Equal(d("1120.00")))
	assert.True(t, plan.TotalAmountWithInterest().Equal(d("1120.00")))
	assert.True(t, plan.Principal().Equal(d("1000")))
	assert.Equal(t, 1, plan.GetVersion())

	events := plan.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "InstallmentPlanCreated", events[0].EventType())
}

func TestNewInstallmentPlan_DownPaymentReducesPrincipal(t *testing.T) {
	products := testProducts("1000")
	plan, err := NewInstallmentPlan(
		uuid.New(), "IP-2025-002", uuid.New(), uuid.New(),
		products, d("1000"), d("200"), 8, d("10"),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	assert.True(t, plan.Principal().Equal(d("800")))
	assert.True(t, plan.RemainingBalance.Equal(d("880.00")))
}

func TestNewInstallmentPlan_Validation(t *testing.T) {
	tenantID := uuid.New()
	saleID := uuid.New()
	customerID := uuid.New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	single := testProducts("1000")
	multi := testProducts("600", "400")

	tests := []struct {
		name        string
		planNumber  string
		saleID      uuid.UUID
		customerID  uuid.UUID
		products    ProductLines
		totalPrice  decimal.Decimal
		downPayment decimal.Decimal
		months      int
		rate        decimal.Decimal
		errCode     string
	}{
		{"empty plan number", "", saleID, customerID, single, d("1000"), decimal.Zero, 10, d("12"), "INVALID_PLAN_NUMBER"},
		{"nil sale", "IP-1", uuid.Nil, customerID, single, d("1000"), decimal.Zero, 10, d("12"), "INVALID_SALE"},
		{"nil customer", "IP-1", saleID, uuid.Nil, single, d("1000"), decimal.Zero, 10, d("12"), "INVALID_CUSTOMER"},
		{"no products", "IP-1", saleID, customerID, nil, d("1000"), decimal.Zero, 10, d("12"), "NO_PRODUCTS"},
		{"total price mismatch", "IP-1", saleID, customerID, single, d("999"), decimal.Zero, 10, d("12"), "INVALID_TOTAL_PRICE"},
		{"zero total price", "IP-1", saleID, customerID, single, decimal.Zero, decimal.Zero, 10, d("12"), "INVALID_TOTAL_PRICE"},
		{"negative down payment", "IP-1", saleID, customerID, single, d("1000"), d("-1"), 10, d("12"), "INVALID_DOWN_PAYMENT"},
		{"down payment equals price", "IP-1", saleID, customerID, single, d("1000"), d("1000"), 10, d("12"), "INVALID_DOWN_PAYMENT"},
		{"negative rate", "IP-1", saleID, customerID, single, d("1000"), decimal.Zero, 10, d("-1"), "INVALID_RATE"},
		{"rate above hundred", "IP-1", saleID, customerID, single, d("1000"), decimal.Zero, 10, d("101"), "INVALID_RATE"},
		{"zero months", "IP-1", saleID, customerID, single, d("1000"), decimal.Zero, 0, d("12"), "INVALID_TERM"},
		{"single product above 120", "IP-1", saleID, customerID, single, d("1000"), decimal.Zero, 121, d("12"), "INVALID_TERM"},
		{"multi product above 60", "IP-1", saleID, customerID, multi, d("1000"), decimal.Zero, 61, d("12"), "INVALID_TERM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstallmentPlan(tenantID, tt.planNumber, tt.saleID, tt.customerID,
				tt.products, tt.totalPrice, tt.downPayment, tt.months, tt.rate, start)
			require.Error(t, err)
			assertDomainErrorCode(t, err, tt.errCode)
		})
	}
}

func TestNewInstallmentPlan_TermBoundsAtLimits(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewInstallmentPlan(uuid.New(), "IP-1", uuid.New(), uuid.New(),
		testProducts("1000"), d("1000"), decimal.Zero, 120, d("5"), start)
	assert.NoError(t, err)

	_, err = NewInstallmentPlan(uuid.New(), "IP-2", uuid.New(), uuid.New(),
		testProducts("600", "400"), d("1000"), decimal.Zero, 60, d("5"), start)
	assert.NoError(t, err)
}

// ============================================
// RecordPayment Tests
// ============================================

func TestInstallmentPlan_RecordPayment_FullLine(t *testing.T) {
	plan := createTestPlan(t)
	paidAt := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	err := plan.RecordPayment(0, d("112.00"), paidAt)
	require.NoError(t, err)

	line := plan.Payments[0]
	assert.Equal(t, PaymentStatusPaid, line.Status)
	assert.True(t, line.AmountPaid.Equal(d("112.00")))
	require.NotNil(t, line.PaidAt)
	assert.True(t, line.PaidAt.Equal(paidAt))
	assert.True(t, plan.TotalPaid.Equal(d("112.00")))
	assert.True(t, plan.RemainingBalance.Equal(d("1008.00")))
	assert.Equal(t, 2, plan.GetVersion())
}

func TestInstallmentPlan_RecordPayment_PartialAccumulates(t *testing.T) {
	products := testProducts("1000")
	plan, err := NewInstallmentPlan(
		uuid.New(), "IP-2025-003", uuid.New(), uuid.New(),
		products, d("1000"), d("450"), 6, decimal.Zero,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	// 550 over 6 months: five lines of 91.67 and a last line of 91.65
	require.True(t, plan.Payments[0].AmountDue.Equal(d("91.67")))

	require.NoError(t, plan.RecordPayment(0, d("50"), time.Now()))
	assert.Equal(t, PaymentStatusPending, plan.Payments[0].Status)
	assert.True(t, plan.Payments[0].Outstanding().Equal(d("41.67")))

	require.NoError(t, plan.RecordPayment(0, d("50"), time.Now()))
	assert.Equal(t, PaymentStatusPaid, plan.Payments[0].Status)
	assert.True(t, plan.Payments[0].AmountPaid.Equal(d("100")))
	assert.True(t, plan.Payments[0].Outstanding().IsZero())
}

func TestInstallmentPlan_RecordPayment_Guards(t *testing.T) {
	plan := createTestPlan(t)
	now := time.Now()

	assert.ErrorIs(t, plan.RecordPayment(-1, d("112"), now), ErrIndexOutOfRange)
	assert.ErrorIs(t, plan.RecordPayment(10, d("112"), now), ErrIndexOutOfRange)
	assert.ErrorIs(t, plan.RecordPayment(0, decimal.Zero, now), ErrInvalidAmount)
	assert.ErrorIs(t, plan.RecordPayment(0, d("-5"), now), ErrInvalidAmount)

	require.NoError(t, plan.RecordPayment(0, d("112.00"), now))
	assert.ErrorIs(t, plan.RecordPayment(0, d("1"), now), ErrAlreadyPaid)

	require.NoError(t, plan.Cancel())
	assert.ErrorIs(t, plan.RecordPayment(1, d("112"), now), ErrPlanNotActive)
}

func TestInstallmentPlan_RecordPayment_CompletesPlan(t *testing.T) {
	plan := createTestPlan(t)
	now := time.Now()

	for i := 0; i < 10; i++ {
		require.NoError(t, plan.RecordPayment(i, plan.Payments[i].AmountDue, now))
	}

	assert.Equal(t, PlanStatusCompleted, plan.Status)
	assert.NotNil(t, plan.CompletedAt)
	assert.True(t, plan.IsCompleted())
	assert.True(t, plan.RemainingBalance.IsZero())
	assert.True(t, plan.TotalPaid.Equal(d("1120.00")))

	found := false
	for _, ev := range plan.GetDomainEvents() {
		if ev.EventType() == "InstallmentPlanCompleted" {
			found = true
		}
	}
	assert.True(t, found, "expected InstallmentPlanCompleted event")
}

// ============================================
// MarkOverdue Tests
// ============================================

func TestInstallmentPlan_MarkOverdue(t *testing.T) {
	plan := createTestPlan(t)
	// First three lines due Feb 15, Mar 15, Apr 15
	now := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)

	marked := plan.MarkOverdue(now)
	assert.Equal(t, 3, marked)
	assert.Equal(t, 3, plan.OverdueInstallments())
	assert.Equal(t, 7, plan.PendingInstallments())

	// Idempotent: a second sweep marks nothing new
	assert.Equal(t, 0, plan.MarkOverdue(now))
}

func TestInstallmentPlan_MarkOverdue_SkipsSettledLines(t *testing.T) {
	plan := createTestPlan(t)
	require.NoError(t, plan.RecordPayment(0, d("112.00"), time.Now()))

	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	marked := plan.MarkOverdue(now)
	assert.Equal(t, 1, marked)
	assert.Equal(t, PaymentStatusPaid, plan.Payments[0].Status)
	assert.Equal(t, PaymentStatusOverdue, plan.Payments[1].Status)
}

func TestInstallmentPlan_MarkOverdue_SettlingOverdueLine(t *testing.T) {
	plan := createTestPlan(t)
	plan.MarkOverdue(time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC))
	require.Equal(t, PaymentStatusOverdue, plan.Payments[0].Status)

	// Partial payment leaves the line overdue; the remainder settles it
	require.NoError(t, plan.RecordPayment(0, d("100"), time.Now()))
	assert.Equal(t, PaymentStatusOverdue, plan.Payments[0].Status)

	require.NoError(t, plan.RecordPayment(0, d("12"), time.Now()))
	assert.Equal(t, PaymentStatusPaid, plan.Payments[0].Status)
}

// ============================================
// Lifecycle Transition Tests
// ============================================

func TestInstallmentPlan_Cancel(t *testing.T) {
	plan := createTestPlan(t)

	require.NoError(t, plan.Cancel())
	assert.Equal(t, PlanStatusCancelled, plan.Status)
	assert.NotNil(t, plan.CancelledAt)

	assert.ErrorIs(t, plan.Cancel(), ErrPlanNotActive)
	assert.ErrorIs(t, plan.MarkDefaulted(), ErrPlanNotActive)
}

func TestInstallmentPlan_MarkDefaulted(t *testing.T) {
	plan := createTestPlan(t)

	require.NoError(t, plan.MarkDefaulted())
	assert.Equal(t, PlanStatusDefaulted, plan.Status)
	assert.NotNil(t, plan.DefaultedAt)

	assert.ErrorIs(t, plan.MarkDefaulted(), ErrPlanNotActive)
}

// ============================================
// Derived Value Tests
// ============================================

func TestInstallmentPlan_NextDueDate(t *testing.T) {
	plan := createTestPlan(t)

	next := plan.NextDueDate()
	require.NotNil(t, next)
	assert.True(t, next.Equal(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, plan.RecordPayment(0, d("112.00"), time.Now()))
	next = plan.NextDueDate()
	require.NotNil(t, next)
	assert.True(t, next.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestInstallmentPlan_OutstandingBalance(t *testing.T) {
	plan := createTestPlan(t)
	require.NoError(t, plan.RecordPayment(0, d("112.00"), time.Now()))
	require.NoError(t, plan.RecordPayment(1, d("12.00"), time.Now()))

	// 1120 total minus 112 settled minus 12 partial
	assert.True(t, plan.OutstandingBalance().Equal(d("996.00")))
	assert.Equal(t, 9, plan.UnpaidInstallments())
}
