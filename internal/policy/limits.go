// Package policy implements the grade-based spending rules: standard
// per-claim ceilings keyed by grade and category, travel-mode allow-lists,
// and the stricter self-declaration caps.
package policy

import (
	"fmt"

	"github.com/priyamtech/expense-approval/internal/domain/entity"
)

// Rule is one cell of the grade x category limit table. Amounts are paise.
type Rule struct {
	MaxAmountPaise int64
	MaxPerDayPaise int64
	AllowedModes   []string
}

// Verdict is the outcome of a standard limit evaluation. Violations are
// advisory at admission time; authoritative rejection is a human decision.
type Verdict struct {
	WithinLimit bool
	Reason      string
}

// Table holds the full standard limit configuration, injected at
// construction instead of read from a global.
type Table map[string]map[string]Rule

// Policy evaluates claims against immutable limit tables.
type Policy struct {
	table     Table
	selfTable SelfTable
}

// NewPolicy creates a limit policy over the given standard and
// self-declaration tables.
func NewPolicy(table Table, selfTable SelfTable) *Policy {
	return &Policy{table: table, selfTable: selfTable}
}

// Evaluate checks amount and travel mode against the claimant's grade.
// Unknown grades use grade A, the tightest table, so a data-entry anomaly
// fails conservative rather than open.
func (p *Policy) Evaluate(grade, category string, amountPaise int64, mode string) Verdict {
	rules, ok := p.table[grade]
	if !ok {
		rules = p.table[entity.GradeA]
	}

	rule, ok := rules[category]
	if !ok {
		rule = rules[entity.CategoryOther]
	}

	if category == entity.CategoryTravel && mode != "" && !modeAllowed(rule.AllowedModes, mode) {
		return Verdict{
			WithinLimit: false,
			Reason:      fmt.Sprintf("travel mode %q not allowed for grade %s (allowed: %v)", mode, grade, rule.AllowedModes),
		}
	}

	if amountPaise > rule.MaxAmountPaise {
		return Verdict{
			WithinLimit: false,
			Reason: fmt.Sprintf("amount ₹%.2f exceeds grade %s limit of ₹%.2f for %s",
				float64(amountPaise)/100, grade, float64(rule.MaxAmountPaise)/100, category),
		}
	}

	return Verdict{WithinLimit: true}
}

func modeAllowed(allowed []string, mode string) bool {
	for _, m := range allowed {
		if m == mode {
			return true
		}
	}
	return false
}

// DefaultTable returns the standard limit table. Grade A carries the
// tightest ceilings; modes widen from {bus,train} at A up to business
// class at D.
func DefaultTable() Table {
	return Table{
		entity.GradeA: {
			entity.CategoryTravel:        {MaxAmountPaise: 150000, MaxPerDayPaise: 150000, AllowedModes: []string{entity.ModeBus, entity.ModeTrain}},
			entity.CategoryFood:          {MaxAmountPaise: 50000, MaxPerDayPaise: 50000},
			entity.CategoryAccommodation: {MaxAmountPaise: 200000, MaxPerDayPaise: 200000},
			entity.CategoryMedical:       {MaxAmountPaise: 100000, MaxPerDayPaise: 100000},
			entity.CategoryCommunication: {MaxAmountPaise: 30000, MaxPerDayPaise: 30000},
			entity.CategoryOther:         {MaxAmountPaise: 50000, MaxPerDayPaise: 50000},
		},
		entity.GradeB: {
			entity.CategoryTravel:        {MaxAmountPaise: 200000, MaxPerDayPaise: 200000, AllowedModes: []string{entity.ModeBus, entity.ModeTrain, entity.ModeCab}},
			entity.CategoryFood:          {MaxAmountPaise: 70000, MaxPerDayPaise: 70000},
			entity.CategoryAccommodation: {MaxAmountPaise: 300000, MaxPerDayPaise: 300000},
			entity.CategoryMedical:       {MaxAmountPaise: 150000, MaxPerDayPaise: 150000},
			entity.CategoryCommunication: {MaxAmountPaise: 50000, MaxPerDayPaise: 50000},
			entity.CategoryOther:         {MaxAmountPaise: 70000, MaxPerDayPaise: 70000},
		},
		entity.GradeC: {
			entity.CategoryTravel:        {MaxAmountPaise: 300000, MaxPerDayPaise: 300000, AllowedModes: []string{entity.ModeBus, entity.ModeTrain, entity.ModeCab, entity.ModeFlightEconomy}},
			entity.CategoryFood:          {MaxAmountPaise: 100000, MaxPerDayPaise: 100000},
			entity.CategoryAccommodation: {MaxAmountPaise: 500000, MaxPerDayPaise: 500000},
			entity.CategoryMedical:       {MaxAmountPaise: 200000, MaxPerDayPaise: 200000},
			entity.CategoryCommunication: {MaxAmountPaise: 70000, MaxPerDayPaise: 70000},
			entity.CategoryOther:         {MaxAmountPaise: 100000, MaxPerDayPaise: 100000},
		},
		entity.GradeD: {
			entity.CategoryTravel:        {MaxAmountPaise: 500000, MaxPerDayPaise: 500000, AllowedModes: []string{entity.ModeBus, entity.ModeTrain, entity.ModeCab, entity.ModeFlightEconomy, entity.ModeFlightBusiness}},
			entity.CategoryFood:          {MaxAmountPaise: 150000, MaxPerDayPaise: 150000},
			entity.CategoryAccommodation: {MaxAmountPaise: 700000, MaxPerDayPaise: 700000},
			entity.CategoryMedical:       {MaxAmountPaise: 300000, MaxPerDayPaise: 300000},
			entity.CategoryCommunication: {MaxAmountPaise: 100000, MaxPerDayPaise: 100000},
			entity.CategoryOther:         {MaxAmountPaise: 150000, MaxPerDayPaise: 150000},
		},
	}
}
