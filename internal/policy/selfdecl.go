package policy

import (
	"fmt"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// Self-declaration violation codes, machine-checkable by callers.
const (
	CodeCategoryForbidden    = "CATEGORY_FORBIDDEN"
	CodePerClaimExceeded     = "PER_CLAIM_EXCEEDED"
	CodeMonthlyTotalExceeded = "MONTHLY_TOTAL_EXCEEDED"
	CodeMonthlyCountExceeded = "MONTHLY_COUNT_EXCEEDED"
)

// Violation is a blocking self-declaration policy breach. It carries the
// limit and the attempted value so the caller can explain the refusal.
type Violation struct {
	Code           string
	LimitPaise     int64
	AttemptedPaise int64
	LimitCount     int
	Message        string
}

func (v *Violation) Error() string {
	return v.Message
}

// SelfRule holds the per-grade self-declaration caps. Strictly tighter
// than the standard ceilings.
type SelfRule struct {
	PerClaimPaise     int64
	MonthlyTotalPaise int64
	MaxCountPerMonth  int
}

// SelfTable maps grade to its self-declaration caps.
type SelfTable map[string]SelfRule

// MonthUsage is the claimant's rolling-month self-declaration aggregate,
// computed by the caller before evaluation.
type MonthUsage struct {
	TotalPaise int64
	Count      int
}

// EvaluateSelfDeclaration runs the blocking self-declaration chain:
// forbidden category, per-claim cap, monthly count, monthly total. Each
// breach refuses independently with a quantified reason. Unknown grades
// use grade D caps, the tightest of the self-declaration tables.
func (p *Policy) EvaluateSelfDeclaration(grade, category string, amountPaise int64, usage MonthUsage) error {
	if category == entity.CategoryAccommodation {
		return &Violation{
			Code:    CodeCategoryForbidden,
			Message: "accommodation claims require a bill and cannot be self-declared",
		}
	}

	rule, ok := p.selfTable[grade]
	if !ok {
		rule = p.selfTable[entity.GradeD]
	}

	if amountPaise > rule.PerClaimPaise {
		return &Violation{
			Code:           CodePerClaimExceeded,
			LimitPaise:     rule.PerClaimPaise,
			AttemptedPaise: amountPaise,
			Message: fmt.Sprintf("self-declared amount ₹%.2f exceeds grade %s per-claim cap of ₹%.2f",
				float64(amountPaise)/100, grade, float64(rule.PerClaimPaise)/100),
		}
	}

	if usage.Count >= rule.MaxCountPerMonth {
		return &Violation{
			Code:       CodeMonthlyCountExceeded,
			LimitCount: rule.MaxCountPerMonth,
			Message: fmt.Sprintf("monthly self-declaration count limit of %d already reached (%d used)",
				rule.MaxCountPerMonth, usage.Count),
		}
	}

	if usage.TotalPaise+amountPaise > rule.MonthlyTotalPaise {
		return &Violation{
			Code:           CodeMonthlyTotalExceeded,
			LimitPaise:     rule.MonthlyTotalPaise,
			AttemptedPaise: usage.TotalPaise + amountPaise,
			Message: fmt.Sprintf("self-declared ₹%.2f this month plus ₹%.2f would exceed the grade %s monthly cap of ₹%.2f",
				float64(usage.TotalPaise)/100, float64(amountPaise)/100, grade, float64(rule.MonthlyTotalPaise)/100),
		}
	}

	return nil
}

// DefaultSelfTable returns the self-declaration caps per grade
// (per-claim / monthly total / monthly count).
func DefaultSelfTable() SelfTable {
	return SelfTable{
		entity.GradeA: {PerClaimPaise: 30000, MonthlyTotalPaise: 50000, MaxCountPerMonth: 3},
		entity.GradeB: {PerClaimPaise: 25000, MonthlyTotalPaise: 40000, MaxCountPerMonth: 3},
		entity.GradeC: {PerClaimPaise: 20000, MonthlyTotalPaise: 30000, MaxCountPerMonth: 3},
		entity.GradeD: {PerClaimPaise: 15000, MonthlyTotalPaise: 20000, MaxCountPerMonth: 3},
	}
}
