package payroll

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/jobs"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/money"
)

const (
	colNetSalary        = "net_salary"
	colBasicSalary      = "basic_salary"
	colNonTaxableIncome = "non_taxable_income"
	colDependents       = "dependents"
)

var batchResultHeader = []string{
	colNetSalary, colBasicSalary, colNonTaxableIncome, colDependents,
	"gross_salary", "employee_si", "pit", "employer_si", "total_company_cost", "top_bracket",
}

// CalculateBatch computes every input on the pool. Results keep input order.
func (s *Service) CalculateBatch(ctx context.Context, pool *jobs.Pool, inputs []Input) ([]Result, error) {
	results := make([]Result, len(inputs))
	err := pool.Run(ctx, jobs.JobBatchCalculation, len(inputs), func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[i] = s.Calculate(inputs[i])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch calculation: %w", err)
	}
	return results, nil
}

// ReadBatchCSV parses rows of net_salary, basic_salary and the optional
// non_taxable_income and dependents columns. The header row names the columns
// in any order; amounts may use grouping separators.
func ReadBatchCSV(r io.Reader) ([]Input, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidBatch)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colNetSalary, colBasicSalary} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidBatch, required)
		}
	}

	var inputs []Input
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
		}
		in, err := parseBatchRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidBatch, line, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func parseBatchRecord(record []string, columns map[string]int) (Input, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	amount := func(name string, required bool) (float64, error) {
		raw := cell(name)
		if raw == "" {
			if required {
				return 0, fmt.Errorf("%s is required", name)
			}
			return 0, nil
		}
		value, err := money.ParseAmount(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %v", name, err)
		}
		if value < 0 {
			return 0, fmt.Errorf("%s must not be negative", name)
		}
		return value, nil
	}

	var in Input
	var err error
	if in.NetSalary, err = amount(colNetSalary, true); err != nil {
		return Input{}, err
	}
	if in.BasicSalary, err = amount(colBasicSalary, true); err != nil {
		return Input{}, err
	}
	if in.NonTaxableIncome, err = amount(colNonTaxableIncome, false); err != nil {
		return Input{}, err
	}
	if raw := cell(colDependents); raw != "" {
		in.Dependents, err = strconv.Atoi(raw)
		if err != nil || in.Dependents < 0 {
			return Input{}, fmt.Errorf("%s must be a non-negative integer", colDependents)
		}
	}
	return in, nil
}

// WriteBatchCSV writes one row per result, amounts rounded to whole dong.
func WriteBatchCSV(w io.Writer, inputs []Input, results []Result) error {
	if len(inputs) != len(results) {
		return fmt.Errorf("%w: %d inputs for %d results", ErrInvalidBatch, len(inputs), len(results))
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(batchResultHeader); err != nil {
		return err
	}
	rows := lo.Map(results, func(res Result, i int) []string {
		in := inputs[i]
		return []string{
			whole(in.NetSalary),
			whole(in.BasicSalary),
			whole(in.NonTaxableIncome),
			strconv.Itoa(in.Dependents),
			whole(res.GrossSalary),
			whole(res.EmployeeSI.Total),
			whole(res.PIT.PITAmount),
			whole(res.EmployerSI.Total),
			whole(res.TotalCompanyCost),
			strconv.Itoa(res.TopBracket()),
		}
	})
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func whole(amount float64) string {
	return money.Round(amount).String()
}
