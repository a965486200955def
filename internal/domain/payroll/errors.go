package payroll

import "errors"

var (
	ErrInvalidSchedule = errors.New("invalid payroll rate schedule")
	ErrScheduleFile    = errors.New("payroll schedule file could not be loaded")
	ErrInvalidBatch    = errors.New("invalid batch input")
)
