package payroll

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// scheduleFile is the YAML layout of a rate schedule. The top tax tier
// omits its ceiling.
type scheduleFile struct {
	Deductions struct {
		Self      float64 `yaml:"self" validate:"gte=0"`
		Dependent float64 `yaml:"dependent" validate:"gte=0"`
	} `yaml:"deductions"`
	Insurance struct {
		Employee rateFile `yaml:"employee"`
		Employer rateFile `yaml:"employer"`
	} `yaml:"insurance"`
	TaxTiers []tierFile `yaml:"tax_tiers" validate:"required,min=1,dive"`
}

type rateFile struct {
	Social       float64 `yaml:"social" validate:"gte=0,lt=1"`
	Health       float64 `yaml:"health" validate:"gte=0,lt=1"`
	Unemployment float64 `yaml:"unemployment" validate:"gte=0,lt=1"`
}

type tierFile struct {
	Ceiling *float64 `yaml:"ceiling" validate:"omitempty,gt=0"`
	Rate    float64  `yaml:"rate" validate:"gte=0,lt=1"`
}

var fileValidator = validator.New()

func LoadScheduleFile(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %w", ErrScheduleFile, err)
	}
	return ParseSchedule(data)
}

func ParseSchedule(data []byte) (Schedule, error) {
	var file scheduleFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Schedule{}, fmt.Errorf("%w: %w", ErrScheduleFile, err)
	}

	if err := fileValidator.Struct(file); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			reasons := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				reasons = append(reasons, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return Schedule{}, fmt.Errorf("%w: %s", ErrInvalidSchedule, strings.Join(reasons, "; "))
		}
		return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	params := ScheduleParams{
		SelfDeduction:      file.Deductions.Self,
		DependentDeduction: file.Deductions.Dependent,
		Employee:           RateSet(file.Insurance.Employee),
		Employer:           RateSet(file.Insurance.Employer),
		Rates:              make([]float64, 0, len(file.TaxTiers)),
	}
	last := len(file.TaxTiers) - 1
	for i, tier := range file.TaxTiers {
		params.Rates = append(params.Rates, tier.Rate)
		switch {
		case i < last && tier.Ceiling == nil:
			return Schedule{}, fmt.Errorf("%w: tax tier %d needs a ceiling", ErrInvalidSchedule, i+1)
		case i == last && tier.Ceiling != nil:
			return Schedule{}, fmt.Errorf("%w: the top tax tier must not have a ceiling", ErrInvalidSchedule)
		case i < last:
			params.Ceilings = append(params.Ceilings, *tier.Ceiling)
		}
	}
	return NewSchedule(params)
}
