package installment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestModification(t *testing.T) *PlanModification {
	mod, err := NewPlanModification(
		uuid.New(),
		uuid.New(),
		ModificationChangeInterestRate,
		"Customer negotiated a lower rate",
		"agent-42",
		ChangeInterestRatePayload(d("8")),
	)
	require.NoError(t, err)
	return mod
}

// ============================================
// ModificationType / ModificationStatus Tests
// ============================================

func TestModificationType_IsValid(t *testing.T) {
	tests := []struct {
		modType ModificationType
		isValid bool
	}{
		{ModificationChangeInstallmentCount, true},
		{ModificationChangeInterestRate, true},
		{ModificationAddProducts, true},
		{ModificationChangeDownPayment, true},
		{ModificationType("INVALID"), false},
		{ModificationType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.modType), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.modType.IsValid())
		})
	}
}

func TestModificationStatus_IsTerminal(t *testing.T) {
	assert.False(t, ModificationStatusPending.IsTerminal())
	assert.False(t, ModificationStatusApproved.IsTerminal())
	assert.True(t, ModificationStatusRejected.IsTerminal())
	assert.True(t, ModificationStatusApplied.IsTerminal())
}

// ============================================
// ModificationPayload Tests
// ============================================

func TestModificationPayload_Validate(t *testing.T) {
	count := 12
	rate := d("8")
	extra := d("100")

	tests := []struct {
		name    string
		modType ModificationType
		payload ModificationPayload
		err     error
	}{
		{"count ok", ModificationChangeInstallmentCount, ModificationPayload{NewInstallmentCount: &count}, nil},
		{"count missing", ModificationChangeInstallmentCount, ModificationPayload{}, ErrMissingPayload},
		{"count below one", ModificationChangeInstallmentCount, ChangeInstallmentCountPayload(0), ErrInvalidTerm},
		{"count above bound", ModificationChangeInstallmentCount, ChangeInstallmentCountPayload(121), ErrInvalidTerm},
		{"rate ok", ModificationChangeInterestRate, ModificationPayload{NewInterestRate: &rate}, nil},
		{"rate missing", ModificationChangeInterestRate, ModificationPayload{}, ErrMissingPayload},
		{"rate negative", ModificationChangeInterestRate, ChangeInterestRatePayload(d("-1")), ErrInvalidRate},
		{"rate above hundred", ModificationChangeInterestRate, ChangeInterestRatePayload(d("101")), ErrInvalidRate},
		{"products ok", ModificationAddProducts, AddProductsPayload(testProducts("50")), nil},
		{"products missing", ModificationAddProducts, ModificationPayload{}, ErrMissingPayload},
		{"products invalid line", ModificationAddProducts, AddProductsPayload(ProductLines{{Name: "x"}}), ErrInvalidProductLine},
		{"down payment ok", ModificationChangeDownPayment, ModificationPayload{AdditionalDownPayment: &extra}, nil},
		{"down payment missing", ModificationChangeDownPayment, ModificationPayload{}, ErrMissingPayload},
		{"down payment zero", ModificationChangeDownPayment, ChangeDownPaymentPayload(decimal.Zero), ErrInvalidAmount},
		{"unknown type", ModificationType("INVALID"), ModificationPayload{}, ErrInvalidModificationType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate(tt.modType)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

// ============================================
// NewPlanModification Tests
// ============================================

func TestNewPlanModification_Success(t *testing.T) {
	mod := createTestModification(t)

	assert.Equal(t, ModificationStatusPending, mod.Status)
	assert.Equal(t, ModificationChangeInterestRate, mod.Type)
	assert.Equal(t, "agent-42", mod.RequestedBy)
	assert.Equal(t, 1, mod.GetVersion())

	events := mod.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "PlanModificationRequested", events[0].EventType())
}

func TestNewPlanModification_Validation(t *testing.T) {
	tenantID := uuid.New()
	planID := uuid.New()
	payload := ChangeInterestRatePayload(d("8"))

	_, err := NewPlanModification(tenantID, uuid.Nil, ModificationChangeInterestRate, "r", "u", payload)
	assertDomainErrorCode(t, err, "INVALID_PLAN")

	_, err = NewPlanModification(tenantID, planID, ModificationType("BAD"), "r", "u", payload)
	assert.ErrorIs(t, err, ErrInvalidModificationType)

	_, err = NewPlanModification(tenantID, planID, ModificationChangeInterestRate, "", "u", payload)
	assertDomainErrorCode(t, err, "INVALID_REASON")

	_, err = NewPlanModification(tenantID, planID, ModificationChangeInterestRate, "r", "", payload)
	assertDomainErrorCode(t, err, "INVALID_REQUESTER")

	_, err = NewPlanModification(tenantID, planID, ModificationChangeInterestRate, "r", "u", ModificationPayload{})
	assert.ErrorIs(t, err, ErrMissingPayload)
}

// ============================================
// Workflow Transition Tests
// ============================================

func TestPlanModification_Approve(t *testing.T) {
	mod := createTestModification(t)

	require.NoError(t, mod.Approve("manager-1", "within policy"))
	assert.Equal(t, ModificationStatusApproved, mod.Status)
	assert.Equal(t, "manager-1", mod.ApprovedBy)
	assert.NotNil(t, mod.ApprovedAt)
	assert.Equal(t, "within policy", mod.ApprovalNotes)
	assert.Equal(t, 2, mod.GetVersion())

	assert.ErrorIs(t, mod.Approve("manager-2", ""), ErrModificationNotPending)
	assert.ErrorIs(t, mod.Reject("manager-2", ""), ErrModificationNotPending)
}

func TestPlanModification_Approve_RequiresApprover(t *testing.T) {
	mod := createTestModification(t)
	err := mod.Approve("", "")
	assertDomainErrorCode(t, err, "INVALID_APPROVER")
	assert.Equal(t, ModificationStatusPending, mod.Status)
}

func TestPlanModification_Reject(t *testing.T) {
	mod := createTestModification(t)

	require.NoError(t, mod.Reject("manager-1", "rate too low"))
	assert.Equal(t, ModificationStatusRejected, mod.Status)
	assert.Equal(t, "manager-1", mod.RejectedBy)
	assert.Equal(t, "rate too low", mod.RejectionReason)
	assert.NotNil(t, mod.RejectedAt)

	assert.ErrorIs(t, mod.Approve("manager-2", ""), ErrModificationNotPending)
	assert.ErrorIs(t, mod.MarkApplied(), ErrModificationNotApproved)
}

func TestPlanModification_MarkApplied(t *testing.T) {
	mod := createTestModification(t)

	assert.ErrorIs(t, mod.MarkApplied(), ErrModificationNotApproved)

	require.NoError(t, mod.Approve("manager-1", ""))
	require.NoError(t, mod.MarkApplied())
	assert.Equal(t, ModificationStatusApplied, mod.Status)
	assert.NotNil(t, mod.AppliedAt)

	assert.ErrorIs(t, mod.MarkApplied(), ErrModificationNotApproved)
}
