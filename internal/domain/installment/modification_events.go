package installment

import (
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ModificationRequestedEvent is raised when a plan modification is requested
type ModificationRequestedEvent struct {
	shared.BaseDomainEvent
	ModificationID uuid.UUID        `json:"modification_id"`
	PlanID         uuid.UUID        `json:"plan_id"`
	Type           ModificationType `json:"type"`
	RequestedBy    string           `json:"requested_by"`
	Reason         string           `json:"reason"`
}

// EventType returns the event type name
func (e *ModificationRequestedEvent) EventType() string {
	return "PlanModificationRequested"
}

// NewModificationRequestedEvent creates a new ModificationRequestedEvent
func NewModificationRequestedEvent(m *PlanModification) *ModificationRequestedEvent {
	return &ModificationRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PlanModificationRequested", "PlanModification", m.ID, m.TenantID),
		ModificationID:  m.ID,
		PlanID:          m.PlanID,
		Type:            m.Type,
		RequestedBy:     m.RequestedBy,
		Reason:          m.Reason,
	}
}

// ModificationApprovedEvent is raised when a modification passes review
type ModificationApprovedEvent struct {
	shared.BaseDomainEvent
	ModificationID uuid.UUID        `json:"modification_id"`
	PlanID         uuid.UUID        `json:"plan_id"`
	Type           ModificationType `json:"type"`
	ApprovedBy     string           `json:"approved_by"`
}

// EventType returns the event type name
func (e *ModificationApprovedEvent) EventType() string {
	return "PlanModificationApproved"
}

// NewModificationApprovedEvent creates a new ModificationApprovedEvent
func NewModificationApprovedEvent(m *PlanModification) *ModificationApprovedEvent {
	return &ModificationApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PlanModificationApproved", "PlanModification", m.ID, m.TenantID),
		ModificationID:  m.ID,
		PlanID:          m.PlanID,
		Type:            m.Type,
		ApprovedBy:      m.ApprovedBy,
	}
}

// ModificationRejectedEvent is raised when a modification is rejected
type ModificationRejectedEvent struct {
	shared.BaseDomainEvent
	ModificationID  uuid.UUID        `json:"modification_id"`
	PlanID          uuid.UUID        `json:"plan_id"`
	Type            ModificationType `json:"type"`
	RejectedBy      string           `json:"rejected_by"`
	RejectionReason string           `json:"rejection_reason"`
}

// EventType returns the event type name
func (e *ModificationRejectedEvent) EventType() string {
	return "PlanModificationRejected"
}

// NewModificationRejectedEvent creates a new ModificationRejectedEvent
func NewModificationRejectedEvent(m *PlanModification) *ModificationRejectedEvent {
	return &ModificationRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PlanModificationRejected", "PlanModification", m.ID, m.TenantID),
		ModificationID:  m.ID,
		PlanID:          m.PlanID,
		Type:            m.Type,
		RejectedBy:      m.RejectedBy,
		RejectionReason: m.RejectionReason,
	}
}

// ModificationAppliedEvent is raised after the plan change is committed
type ModificationAppliedEvent struct {
	shared.BaseDomainEvent
	ModificationID uuid.UUID        `json:"modification_id"`
	PlanID         uuid.UUID        `json:"plan_id"`
	Type           ModificationType `json:"type"`
}

// EventType returns the event type name
func (e *ModificationAppliedEvent) EventType() string {
	return "PlanModificationApplied"
}

// NewModificationAppliedEvent creates a new ModificationAppliedEvent
func NewModificationAppliedEvent(m *PlanModification) *ModificationAppliedEvent {
	return &ModificationAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PlanModificationApplied", "PlanModification", m.ID, m.TenantID),
		ModificationID:  m.ID,
		PlanID:          m.PlanID,
		Type:            m.Type,
	}
}
