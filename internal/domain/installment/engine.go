package installment

import (
	"fmt"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ModificationPreview is the side-effect-free projection of what a
// modification would do to a plan. All figures compare the unpaid remainder
// of the current schedule against the schedule the change would produce.
type ModificationPreview struct {
	PlanID                  string           `json:"plan_id"`
	Type                    ModificationType `json:"type"`
	CurrentInstallmentCount int              `json:"current_installment_count"`
	NewInstallmentCount     int              `json:"new_installment_count"`
	MonthsDifference        int              `json:"months_difference"`
	CurrentEMI              decimal.Decimal  `json:"current_emi"`
	NewEMI                  decimal.Decimal  `json:"new_emi"`
	EMIDifference           decimal.Decimal  `json:"emi_difference"`
	CurrentTotalPayable     decimal.Decimal  `json:"current_total_payable"`
	NewTotalPayable         decimal.Decimal  `json:"new_total_payable"`
	TotalPayableDifference  decimal.Decimal  `json:"total_payable_difference"`
	IsFinanciallyBeneficial bool             `json:"is_financially_beneficial"`
	Recommendation          string           `json:"recommendation"`
	NewSchedule             PaymentSchedule  `json:"new_schedule"`
}

// ModificationEngine projects and applies plan modifications. Preview never
// mutates the plan; Apply rewrites the unpaid tail of the schedule in place.
type ModificationEngine struct{}

// NewModificationEngine creates a new ModificationEngine
func NewModificationEngine() *ModificationEngine {
	return &ModificationEngine{}
}

// Preview computes the financial impact of applying the given modification
// to the plan, without touching the plan itself.
func (e *ModificationEngine) Preview(plan *InstallmentPlan, modType ModificationType, payload ModificationPayload) (*ModificationPreview, error) {
	newSchedule, err := e.projectSchedule(plan, modType, payload)
	if err != nil {
		return nil, err
	}

	currentCount := plan.UnpaidInstallments()
	currentTotal := plan.OutstandingBalance()
	currentEMI := firstUnpaidAmount(plan.Payments)

	newTotal := newSchedule.TotalDue()
	newEMI := decimal.Zero
	if len(newSchedule) > 0 {
		newEMI = newSchedule[0].AmountDue
	}

	totalDiff := newTotal.Sub(currentTotal)
	preview := &ModificationPreview{
		PlanID:                  plan.ID.String(),
		Type:                    modType,
		CurrentInstallmentCount: currentCount,
		NewInstallmentCount:     len(newSchedule),
		MonthsDifference:        len(newSchedule) - currentCount,
		CurrentEMI:              currentEMI,
		NewEMI:                  newEMI,
		EMIDifference:           newEMI.Sub(currentEMI),
		CurrentTotalPayable:     currentTotal,
		NewTotalPayable:         newTotal,
		TotalPayableDifference:  totalDiff,
		IsFinanciallyBeneficial: totalDiff.IsNegative(),
		NewSchedule:             newSchedule,
	}
	preview.Recommendation = recommendationFor(totalDiff)

	return preview, nil
}

// Apply rewrites the plan according to an approved modification: settled
// lines are kept, the unpaid tail is replaced by the projected schedule, and
// the plan's terms are updated to match. Partial payments on unsettled lines
// are preserved as settled lines sized to what was actually received.
func (e *ModificationEngine) Apply(plan *InstallmentPlan, mod *PlanModification) error {
	if mod.Status != ModificationStatusApproved {
		return ErrModificationNotApproved
	}
	if plan.ID != mod.PlanID {
		return shared.NewDomainError("INVALID_PLAN", "Modification does not belong to this plan")
	}

	newSchedule, err := e.projectSchedule(plan, mod.Type, mod.Payload)
	if err != nil {
		return err
	}

	kept := make(PaymentSchedule, 0, len(plan.Payments))
	for i := range plan.Payments {
		line := plan.Payments[i]
		switch {
		case line.IsPaid():
			kept = append(kept, line)
		case line.AmountPaid.IsPositive():
			line.AmountDue = line.AmountPaid
			line.Status = PaymentStatusPaid
			kept = append(kept, line)
		}
	}

	switch mod.Type {
	case ModificationChangeInterestRate:
		plan.InterestRate = *mod.Payload.NewInterestRate
	case ModificationAddProducts:
		plan.Products = append(plan.Products, mod.Payload.AdditionalProducts...)
		plan.TotalPrice = plan.Products.Total()
	case ModificationChangeDownPayment:
		plan.DownPayment = plan.DownPayment.Add(*mod.Payload.AdditionalDownPayment)
	}

	plan.Payments = append(kept, newSchedule...)
	plan.NumberOfInstallments = len(plan.Payments)
	plan.EndDate = plan.Payments.LastDueDate()
	plan.RemainingBalance = newSchedule.TotalDue()
	plan.TotalPaid = plan.Payments.TotalPaid()
	plan.UpdatedAt = time.Now()
	plan.IncrementVersion()

	return nil
}

// projectSchedule builds the replacement schedule for the unpaid portion of
// the plan under the given modification. The base is the sum of unpaid
// amounts due, re-amortized at the plan's current rate (the requested rate
// for a rate change); the first new line falls due on the earliest unsettled
// due date.
func (e *ModificationEngine) projectSchedule(plan *InstallmentPlan, modType ModificationType, payload ModificationPayload) (PaymentSchedule, error) {
	if plan.Status != PlanStatusActive {
		return nil, ErrPlanNotActive
	}
	if err := payload.Validate(modType); err != nil {
		return nil, err
	}
	unpaid := plan.UnpaidInstallments()
	if unpaid == 0 {
		return nil, ErrNothingToModify
	}

	firstDue := plan.Payments.NextUnpaidDueDate()
	outstanding := plan.OutstandingBalance()

	switch modType {
	case ModificationChangeInstallmentCount:
		months := *payload.NewInstallmentCount
		maxTerm := MaxInstallmentsSingleProduct
		if len(plan.Products) > 1 {
			maxTerm = MaxInstallmentsMultiProduct
		}
		if months > maxTerm {
			return nil, ErrInvalidTerm
		}
		return GenerateScheduleFrom(outstanding, plan.InterestRate, months, *firstDue)

	case ModificationChangeInterestRate:
		return GenerateScheduleFrom(outstanding, *payload.NewInterestRate, unpaid, *firstDue)

	case ModificationAddProducts:
		base := outstanding.Add(payload.AdditionalProducts.Total())
		return GenerateScheduleFrom(base, plan.InterestRate, unpaid, *firstDue)

	case ModificationChangeDownPayment:
		base := outstanding.Sub(*payload.AdditionalDownPayment)
		if !base.IsPositive() {
			return nil, ErrInvalidDownPayment
		}
		return GenerateScheduleFrom(base, plan.InterestRate, unpaid, *firstDue)
	}

	return nil, ErrInvalidModificationType
}

// firstUnpaidAmount returns the amount due on the earliest unsettled line
func firstUnpaidAmount(s PaymentSchedule) decimal.Decimal {
	for i := range s {
		if !s[i].IsPaid() {
			return s[i].AmountDue
		}
	}
	return decimal.Zero
}

// recommendationFor phrases the total-payable delta for display
func recommendationFor(totalDiff decimal.Decimal) string {
	switch {
	case totalDiff.IsNegative():
		return fmt.Sprintf("Recommended: total payable drops by %s", totalDiff.Abs().StringFixed(2))
	case totalDiff.IsPositive():
		return fmt.Sprintf("Caution: total payable rises by %s", totalDiff.StringFixed(2))
	default:
		return "Neutral: total payable is unchanged"
	}
}
