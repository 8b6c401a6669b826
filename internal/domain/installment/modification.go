package installment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ModificationType identifies which aspect of a plan a modification changes
type ModificationType string

const (
	ModificationChangeInstallmentCount ModificationType = "CHANGE_INSTALLMENT_COUNT"
	ModificationChangeInterestRate     ModificationType = "CHANGE_INTEREST_RATE"
	ModificationAddProducts            ModificationType = "ADD_PRODUCTS"
	ModificationChangeDownPayment      ModificationType = "CHANGE_DOWN_PAYMENT"
)

// IsValid checks if the modification type is recognized
func (t ModificationType) IsValid() bool {
	switch t {
	case ModificationChangeInstallmentCount, ModificationChangeInterestRate,
		ModificationAddProducts, ModificationChangeDownPayment:
		return true
	}
	return false
}

// String returns the string representation of ModificationType
func (t ModificationType) String() string {
	return string(t)
}

// ModificationStatus represents the workflow state of a modification request
type ModificationStatus string

const (
	ModificationStatusPending  ModificationStatus = "PENDING"
	ModificationStatusApproved ModificationStatus = "APPROVED"
	ModificationStatusRejected ModificationStatus = "REJECTED"
	ModificationStatusApplied  ModificationStatus = "APPLIED"
)

// IsValid checks if the status is a valid ModificationStatus
func (s ModificationStatus) IsValid() bool {
	switch s {
	case ModificationStatusPending, ModificationStatusApproved,
		ModificationStatusRejected, ModificationStatusApplied:
		return true
	}
	return false
}

// String returns the string representation of ModificationStatus
func (s ModificationStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the modification can no longer change state
func (s ModificationStatus) IsTerminal() bool {
	return s == ModificationStatusRejected || s == ModificationStatusApplied
}

// Modification errors
var (
	ErrInvalidModificationType = shared.NewDomainError("INVALID_MODIFICATION_TYPE", "Modification type is not recognized")
	ErrMissingPayload          = shared.NewDomainError("MISSING_PAYLOAD", "Modification payload does not carry the field its type requires")
	ErrNothingToModify         = shared.NewDomainError("NOTHING_TO_MODIFY", "Plan has no unpaid installments left to modify")
	ErrModificationNotPending  = shared.NewDomainError("INVALID_STATE", "Modification has already been decided")
	ErrModificationNotApproved = shared.NewDomainError("INVALID_STATE", "Only an approved modification can be applied")
)

// ModificationPayload is a tagged union keyed by ModificationType: exactly
// the field matching the type is set, the rest stay nil. Stored as JSONB.
type ModificationPayload struct {
	NewInstallmentCount   *int             `json:"new_installment_count,omitempty"`
	NewInterestRate       *decimal.Decimal `json:"new_interest_rate,omitempty"`
	AdditionalProducts    ProductLines     `json:"additional_products,omitempty"`
	AdditionalDownPayment *decimal.Decimal `json:"additional_down_payment,omitempty"`
}

// ChangeInstallmentCountPayload builds the payload for a term change
func ChangeInstallmentCountPayload(count int) ModificationPayload {
	return ModificationPayload{NewInstallmentCount: &count}
}

// ChangeInterestRatePayload builds the payload for a rate change
func ChangeInterestRatePayload(rate decimal.Decimal) ModificationPayload {
	return ModificationPayload{NewInterestRate: &rate}
}

// AddProductsPayload builds the payload for adding products to a plan
func AddProductsPayload(products ProductLines) ModificationPayload {
	return ModificationPayload{AdditionalProducts: products}
}

// ChangeDownPaymentPayload builds the payload for an extra down payment
func ChangeDownPaymentPayload(amount decimal.Decimal) ModificationPayload {
	return ModificationPayload{AdditionalDownPayment: &amount}
}

// Validate checks that the field required by the given type is present and sane
func (p ModificationPayload) Validate(t ModificationType) error {
	switch t {
	case ModificationChangeInstallmentCount:
		if p.NewInstallmentCount == nil {
			return ErrMissingPayload
		}
		if *p.NewInstallmentCount < 1 || *p.NewInstallmentCount > MaxInstallmentsSingleProduct {
			return ErrInvalidTerm
		}
	case ModificationChangeInterestRate:
		if p.NewInterestRate == nil {
			return ErrMissingPayload
		}
		if p.NewInterestRate.IsNegative() || p.NewInterestRate.GreaterThan(hundred) {
			return ErrInvalidRate
		}
	case ModificationAddProducts:
		if len(p.AdditionalProducts) == 0 {
			return ErrMissingPayload
		}
		if err := p.AdditionalProducts.Validate(); err != nil {
			return err
		}
	case ModificationChangeDownPayment:
		if p.AdditionalDownPayment == nil {
			return ErrMissingPayload
		}
		if !p.AdditionalDownPayment.IsPositive() {
			return ErrInvalidAmount
		}
	default:
		return ErrInvalidModificationType
	}
	return nil
}

// Value implements driver.Valuer for GORM to store as JSONB
func (p ModificationPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (p *ModificationPayload) Scan(value interface{}) error {
	if value == nil {
		*p = ModificationPayload{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ModificationPayload: unsupported type")
	}

	if len(bytes) == 0 {
		*p = ModificationPayload{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// PlanModification is the aggregate root for a proposed change to an
// installment plan. It moves Pending -> Approved -> Applied, or
// Pending -> Rejected; Rejected and Applied are terminal.
type PlanModification struct {
	shared.TenantAggregateRoot
	PlanID          uuid.UUID           `json:"plan_id"`
	Type            ModificationType    `json:"type"`
	Reason          string              `json:"reason"`
	RequestedBy     string              `json:"requested_by"`
	Payload         ModificationPayload `json:"payload"`
	Status          ModificationStatus  `json:"status"`
	ApprovedBy      string              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty"`
	ApprovalNotes   string              `json:"approval_notes,omitempty"`
	RejectedBy      string              `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	AppliedAt       *time.Time          `json:"applied_at,omitempty"`
}

// NewPlanModification creates a pending modification request after checking
// that the payload carries the field its type requires.
func NewPlanModification(
	tenantID uuid.UUID,
	planID uuid.UUID,
	modType ModificationType,
	reason string,
	requestedBy string,
	payload ModificationPayload,
) (*PlanModification, error) {
	if planID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan ID cannot be empty")
	}
	if !modType.IsValid() {
		return nil, ErrInvalidModificationType
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Modification reason is required")
	}
	if requestedBy == "" {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester identity is required")
	}
	if err := payload.Validate(modType); err != nil {
		return nil, err
	}

	m := &PlanModification{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PlanID:              planID,
		Type:                modType,
		Reason:              reason,
		RequestedBy:         requestedBy,
		Payload:             payload,
		Status:              ModificationStatusPending,
	}

	m.AddDomainEvent(NewModificationRequestedEvent(m))

	return m, nil
}

// Approve moves a pending modification to APPROVED
func (m *PlanModification) Approve(approver, notes string) error {
	if m.Status != ModificationStatusPending {
		return ErrModificationNotPending
	}
	if approver == "" {
		return shared.NewDomainError("INVALID_APPROVER", "Approver identity is required")
	}
	now := time.Now()
	m.Status = ModificationStatusApproved
	m.ApprovedBy = approver
	m.ApprovedAt = &now
	m.ApprovalNotes = notes
	m.UpdatedAt = now
	m.IncrementVersion()
	m.AddDomainEvent(NewModificationApprovedEvent(m))
	return nil
}

// Reject moves a pending modification to REJECTED (terminal)
func (m *PlanModification) Reject(rejecter, reason string) error {
	if m.Status != ModificationStatusPending {
		return ErrModificationNotPending
	}
	if rejecter == "" {
		return shared.NewDomainError("INVALID_REJECTER", "Rejecter identity is required")
	}
	now := time.Now()
	m.Status = ModificationStatusRejected
	m.RejectedBy = rejecter
	m.RejectedAt = &now
	m.RejectionReason = reason
	m.UpdatedAt = now
	m.IncrementVersion()
	m.AddDomainEvent(NewModificationRejectedEvent(m))
	return nil
}

// MarkApplied moves an approved modification to APPLIED (terminal). The
// caller is responsible for having committed the plan change first.
func (m *PlanModification) MarkApplied() error {
	if m.Status != ModificationStatusApproved {
		return ErrModificationNotApproved
	}
	now := time.Now()
	m.Status = ModificationStatusApplied
	m.AppliedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()
	m.AddDomainEvent(NewModificationAppliedEvent(m))
	return nil
}
