package policy

import (
	"errors"
	"testing"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

func newTestPolicy() *Policy {
	return NewPolicy(DefaultTable(), DefaultSelfTable())
}

func TestPolicy_Evaluate(t *testing.T) {
	p := newTestPolicy()

	tests := []struct {
		name        string
		grade       string
		category    string
		amountPaise int64
		mode        string
		withinLimit bool
	}{
		{"grade A food at limit", entity.GradeA, entity.CategoryFood, 50000, "", true},
		{"grade A food over limit", entity.GradeA, entity.CategoryFood, 50001, "", false},
		{"grade D food under higher limit", entity.GradeD, entity.CategoryFood, 140000, "", true},
		{"grade A train allowed", entity.GradeA, entity.CategoryTravel, 100000, entity.ModeTrain, true},
		{"grade A cab forbidden", entity.GradeA, entity.CategoryTravel, 100000, entity.ModeCab, false},
		{"grade B cab allowed", entity.GradeB, entity.CategoryTravel, 100000, entity.ModeCab, true},
		{"grade C flight economy allowed", entity.GradeC, entity.CategoryTravel, 250000, entity.ModeFlightEconomy, true},
		{"grade C flight business forbidden", entity.GradeC, entity.CategoryTravel, 250000, entity.ModeFlightBusiness, false},
		{"travel without mode skips mode check", entity.GradeA, entity.CategoryTravel, 100000, "", true},
		{"accommodation within grade B", entity.GradeB, entity.CategoryAccommodation, 300000, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := p.Evaluate(tt.grade, tt.category, tt.amountPaise, tt.mode)
			if v.WithinLimit != tt.withinLimit {
				t.Errorf("Evaluate() withinLimit = %v, want %v (reason %q)", v.WithinLimit, tt.withinLimit, v.Reason)
			}
			if !v.WithinLimit && v.Reason == "" {
				t.Error("violation verdict missing reason")
			}
		})
	}
}

func TestPolicy_EvaluateUnknownGradeUsesStrictest(t *testing.T) {
	p := newTestPolicy()

	// ₹600 food passes every grade except A; an unknown grade must be
	// held to the grade A ceiling.
	v := p.Evaluate("X", entity.CategoryFood, 60000, "")
	if v.WithinLimit {
		t.Error("unknown grade admitted an amount above the grade A ceiling")
	}
}

func TestPolicy_EvaluateSelfDeclaration(t *testing.T) {
	p := newTestPolicy()

	t.Run("within all caps", func(t *testing.T) {
		err := p.EvaluateSelfDeclaration(entity.GradeB, entity.CategoryFood, 10000, MonthUsage{})
		if err != nil {
			t.Fatalf("EvaluateSelfDeclaration() error = %v", err)
		}
	})

	t.Run("accommodation forbidden", func(t *testing.T) {
		err := p.EvaluateSelfDeclaration(entity.GradeD, entity.CategoryAccommodation, 5000, MonthUsage{})
		var v *Violation
		if !errors.As(err, &v) || v.Code != CodeCategoryForbidden {
			t.Fatalf("error = %v, want CATEGORY_FORBIDDEN violation", err)
		}
	})

	t.Run("per-claim cap", func(t *testing.T) {
		// Grade B per-claim cap is ₹250.
		err := p.EvaluateSelfDeclaration(entity.GradeB, entity.CategoryFood, 25100, MonthUsage{})
		var v *Violation
		if !errors.As(err, &v) || v.Code != CodePerClaimExceeded {
			t.Fatalf("error = %v, want PER_CLAIM_EXCEEDED violation", err)
		}
		if v.LimitPaise != 25000 || v.AttemptedPaise != 25100 {
			t.Errorf("violation limits = (%d, %d), want (25000, 25100)", v.LimitPaise, v.AttemptedPaise)
		}
	})

	t.Run("monthly count cap", func(t *testing.T) {
		err := p.EvaluateSelfDeclaration(entity.GradeB, entity.CategoryFood, 1000, MonthUsage{TotalPaise: 10000, Count: 3})
		var v *Violation
		if !errors.As(err, &v) || v.Code != CodeMonthlyCountExceeded {
			t.Fatalf("error = %v, want MONTHLY_COUNT_EXCEEDED violation", err)
		}
	})

	t.Run("monthly total cap", func(t *testing.T) {
		// Grade B monthly cap ₹400: ₹350 used + ₹100 refused, + ₹50 admitted.
		err := p.EvaluateSelfDeclaration(entity.GradeB, entity.CategoryFood, 10000, MonthUsage{TotalPaise: 35000, Count: 2})
		var v *Violation
		if !errors.As(err, &v) || v.Code != CodeMonthlyTotalExceeded {
			t.Fatalf("error = %v, want MONTHLY_TOTAL_EXCEEDED violation", err)
		}

		if err := p.EvaluateSelfDeclaration(entity.GradeB, entity.CategoryFood, 5000, MonthUsage{TotalPaise: 35000, Count: 2}); err != nil {
			t.Fatalf("₹50 within remaining headroom refused: %v", err)
		}
	})

	t.Run("unknown grade uses grade D caps", func(t *testing.T) {
		// ₹200 is fine for grade C but above the grade D per-claim cap.
		err := p.EvaluateSelfDeclaration("Z", entity.CategoryFood, 20000, MonthUsage{})
		var v *Violation
		if !errors.As(err, &v) || v.Code != CodePerClaimExceeded {
			t.Fatalf("error = %v, want PER_CLAIM_EXCEEDED under grade D caps", err)
		}
	})
}
