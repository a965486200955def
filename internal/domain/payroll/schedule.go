package payroll

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// ScheduleParams is the adjustable part of a rate schedule. Ceilings holds
// one entry per bounded tier, so len(Ceilings) == len(Rates)-1.
type ScheduleParams struct {
	SelfDeduction      float64
	DependentDeduction float64
	Employee           RateSet
	Employer           RateSet
	Ceilings           []float64
	Rates              []float64
}

// Schedule is an immutable, validated rate schedule. The conversion tiers
// used by the net-to-gross inversion are derived from the forward tiers when
// the schedule is built, so the two tables cannot drift apart.
type Schedule struct {
	selfDeduction      float64
	dependentDeduction float64
	employee           RateSet
	employer           RateSet
	tiers              []TaxTier
	conversion         []ConversionTier
}

func DefaultScheduleParams() ScheduleParams {
	return ScheduleParams{
		SelfDeduction:      DefaultSelfDeduction,
		DependentDeduction: DefaultDependentDeduction,
		Employee: RateSet{
			Social:       EmployeeSocialRate,
			Health:       EmployeeHealthRate,
			Unemployment: EmployeeUnemploymentRate,
		},
		Employer: RateSet{
			Social:       EmployerSocialRate,
			Health:       EmployerHealthRate,
			Unemployment: EmployerUnemploymentRate,
		},
		Ceilings: append([]float64(nil), defaultTierCeilings...),
		Rates:    append([]float64(nil), defaultTierRates...),
	}
}

func DefaultSchedule() Schedule {
	schedule, err := NewSchedule(DefaultScheduleParams())
	if err != nil {
		panic(fmt.Sprintf("default payroll schedule: %v", err))
	}
	return schedule
}

func NewSchedule(params ScheduleParams) (Schedule, error) {
	if err := validateParams(params); err != nil {
		return Schedule{}, err
	}

	tiers := make([]TaxTier, len(params.Rates))
	for i, rate := range params.Rates {
		ceiling := math.Inf(1)
		if i < len(params.Ceilings) {
			ceiling = params.Ceilings[i]
		}
		tiers[i] = TaxTier{Level: i + 1, Ceiling: ceiling, Rate: rate}
	}

	return Schedule{
		selfDeduction:      params.SelfDeduction,
		dependentDeduction: params.DependentDeduction,
		employee:           params.Employee,
		employer:           params.Employer,
		tiers:              tiers,
		conversion:         deriveConversionTiers(tiers),
	}, nil
}

func validateParams(params ScheduleParams) error {
	if !finiteNonNegative(params.SelfDeduction) {
		return fmt.Errorf("%w: self deduction must be a non-negative amount", ErrInvalidSchedule)
	}
	if !finiteNonNegative(params.DependentDeduction) {
		return fmt.Errorf("%w: dependent deduction must be a non-negative amount", ErrInvalidSchedule)
	}
	if err := validateRateSet("employee", params.Employee); err != nil {
		return err
	}
	if err := validateRateSet("employer", params.Employer); err != nil {
		return err
	}
	if len(params.Rates) == 0 {
		return fmt.Errorf("%w: at least one tax tier is required", ErrInvalidSchedule)
	}
	if len(params.Ceilings) != len(params.Rates)-1 {
		return fmt.Errorf("%w: expected %d tier ceilings for %d rates, got %d", ErrInvalidSchedule, len(params.Rates)-1, len(params.Rates), len(params.Ceilings))
	}

	previous := 0.0
	for i, ceiling := range params.Ceilings {
		if math.IsNaN(ceiling) || math.IsInf(ceiling, 0) || ceiling <= previous {
			return fmt.Errorf("%w: tier %d ceiling must be finite and above %v", ErrInvalidSchedule, i+1, previous)
		}
		previous = ceiling
	}

	previousRate := 0.0
	for i, rate := range params.Rates {
		if !finiteNonNegative(rate) || rate >= 1 {
			return fmt.Errorf("%w: tier %d rate must be in [0, 1)", ErrInvalidSchedule, i+1)
		}
		// a falling marginal rate breaks the monotone inversion
		if rate < previousRate {
			return fmt.Errorf("%w: tier %d rate %v is below tier %d rate %v", ErrInvalidSchedule, i+1, rate, i, previousRate)
		}
		previousRate = rate
	}
	return nil
}

func validateRateSet(side string, rates RateSet) error {
	for _, rate := range []float64{rates.Social, rates.Health, rates.Unemployment} {
		if !finiteNonNegative(rate) || rate >= 1 {
			return fmt.Errorf("%w: %s insurance rates must be in [0, 1)", ErrInvalidSchedule, side)
		}
	}
	if rates.Total() >= 1 {
		return fmt.Errorf("%w: %s insurance rates must sum below 1", ErrInvalidSchedule, side)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// deriveConversionTiers inverts the forward schedule tier by tier. With
// ceilings M, rates r and cumulative tax T at each ceiling, tier k maps
// converted income c to (c - (M[k-1]*r[k] - T[k-1])) / (1 - r[k]) for
// c <= M[k] - T[k].
func deriveConversionTiers(tiers []TaxTier) []ConversionTier {
	out := make([]ConversionTier, 0, len(tiers))
	previousCeiling, previousTax := 0.0, 0.0
	for _, tier := range tiers {
		conversion := ConversionTier{
			Level:     tier.Level,
			Threshold: math.Inf(1),
			Subtract:  previousCeiling*tier.Rate - previousTax,
			Divisor:   1 - tier.Rate,
		}
		if !math.IsInf(tier.Ceiling, 1) {
			tax := previousTax + (tier.Ceiling-previousCeiling)*tier.Rate
			conversion.Threshold = tier.Ceiling - tax
			previousCeiling, previousTax = tier.Ceiling, tax
		}
		out = append(out, conversion)
	}
	return out
}

func (s Schedule) SelfDeduction() float64      { return s.selfDeduction }
func (s Schedule) DependentDeduction() float64 { return s.dependentDeduction }
func (s Schedule) EmployeeRates() RateSet      { return s.employee }
func (s Schedule) EmployerRates() RateSet      { return s.employer }

func (s Schedule) Tiers() []TaxTier {
	return append([]TaxTier(nil), s.tiers...)
}

func (s Schedule) ConversionTiers() []ConversionTier {
	return append([]ConversionTier(nil), s.conversion...)
}

// PersonalDeductions is the self deduction plus the per-dependent deduction.
// Valid reports whether s was built by NewSchedule.
func (s Schedule) Valid() bool {
	return len(s.tiers) > 0 && len(s.conversion) == len(s.tiers)
}

func (s Schedule) PersonalDeductions(dependents int) float64 {
	return s.selfDeduction + float64(dependents)*s.dependentDeduction
}

type TierView struct {
	Level   int      `json:"level"`
	Ceiling *float64 `json:"ceiling"`
	Rate    float64  `json:"rate"`
}

type ConversionTierView struct {
	Level     int      `json:"level"`
	Threshold *float64 `json:"threshold"`
	Subtract  float64  `json:"subtract"`
	Divisor   float64  `json:"divisor"`
}

type ScheduleView struct {
	SelfDeduction      float64              `json:"selfDeduction"`
	DependentDeduction float64              `json:"dependentDeduction"`
	EmployeeRates      RateSet              `json:"employeeRates"`
	EmployerRates      RateSet              `json:"employerRates"`
	TaxTiers           []TierView           `json:"taxTiers"`
	ConversionTiers    []ConversionTierView `json:"conversionTiers"`
}

// View renders the schedule for JSON output; unbounded limits become null.
func (s Schedule) View() ScheduleView {
	return ScheduleView{
		SelfDeduction:      s.selfDeduction,
		DependentDeduction: s.dependentDeduction,
		EmployeeRates:      s.employee,
		EmployerRates:      s.employer,
		TaxTiers: lo.Map(s.tiers, func(t TaxTier, _ int) TierView {
			return TierView{Level: t.Level, Ceiling: boundedOrNil(t.Ceiling), Rate: t.Rate}
		}),
		ConversionTiers: lo.Map(s.conversion, func(c ConversionTier, _ int) ConversionTierView {
			return ConversionTierView{Level: c.Level, Threshold: boundedOrNil(c.Threshold), Subtract: c.Subtract, Divisor: c.Divisor}
		}),
	}
}

func boundedOrNil(v float64) *float64 {
	if math.IsInf(v, 1) {
		return nil
	}
	return &v
}
