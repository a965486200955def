package payroll

// ComputeSI applies one side's contribution rates to the contribution base.
// The base is used as given; any statutory cap must be applied by the caller.
func ComputeSI(base float64, rates RateSet) SIDetail {
	return SIDetail{
		SocialInsurance:       base * rates.Social,
		HealthInsurance:       base * rates.Health,
		UnemploymentInsurance: base * rates.Unemployment,
		Total:                 base * rates.Total(),
	}
}

func (s Schedule) ComputeSI(base float64) Contributions {
	return Contributions{
		Employee: ComputeSI(base, s.employee),
		Employer: ComputeSI(base, s.employer),
	}
}
