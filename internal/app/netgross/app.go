// Package netgross is the command-line front end of the payroll engine.
package netgross

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/auth"
	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/payroll"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/jobs"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/money"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "netgross",
		Usage:   "convert an agreed net salary into gross pay, insurance and personal income tax",
		Version: "dev",
		Commands: []*cli.Command{
			calcCommand(),
			payslipCommand(),
			batchCommand(),
			scheduleCommand(),
			tokenCommand(),
		},
	}
}

var scheduleFlag = &cli.StringFlag{
	Name:    "schedule",
	Usage:   "YAML rate schedule; statutory defaults when empty",
	EnvVars: []string{"PAYROLL_SCHEDULE_FILE"},
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "net", Value: "30.000.000", Usage: "agreed monthly net salary"},
		&cli.StringFlag{Name: "base", Value: "5.200.000", Usage: "salary base for insurance contributions"},
		&cli.StringFlag{Name: "non-taxable", Value: "0", Usage: "tax-exempt allowances included in net"},
		&cli.IntFlag{Name: "dependents", Value: 1, Usage: "registered dependents"},
		scheduleFlag,
	}
}

func calcCommand() *cli.Command {
	return &cli.Command{
		Name:  "calc",
		Usage: "print the net-to-gross breakdown",
		Flags: append(inputFlags(), &cli.BoolFlag{Name: "json", Usage: "print the result as JSON"}),
		Action: func(c *cli.Context) error {
			svc, in, err := prepare(c)
			if err != nil {
				return err
			}
			res := svc.Calculate(in)
			if c.Bool("json") {
				return writeJSON(c.App.Writer, res)
			}
			return writeBreakdown(c.App.Writer, svc.Schedule(), res)
		},
	}
}

func payslipCommand() *cli.Command {
	flags := append(inputFlags(),
		&cli.StringFlag{Name: "out", Usage: "PDF file to write", Required: true},
		&cli.StringFlag{Name: "company", Usage: "company line on the payslip", EnvVars: []string{"PAYSLIP_COMPANY"}},
	)
	return &cli.Command{
		Name:  "payslip",
		Usage: "render the breakdown as a PDF payslip",
		Flags: flags,
		Action: func(c *cli.Context) error {
			svc, in, err := prepare(c)
			if err != nil {
				return err
			}
			f, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("create payslip: %w", err)
			}
			if err := svc.WritePayslipPDF(f, svc.Calculate(in), time.Now()); err != nil {
				_ = f.Close()
				return fmt.Errorf("render payslip: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close payslip: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "payslip written to %s\n", c.String("out"))
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "convert every row of a CSV file (net_salary, basic_salary, non_taxable_income, dependents)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "input CSV, - for stdin", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output CSV, stdout when empty"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "concurrent calculations"},
			scheduleFlag,
		},
		Action: func(c *cli.Context) error {
			schedule, err := loadSchedule(c.String("schedule"))
			if err != nil {
				return err
			}

			var src io.Reader = c.App.Reader
			if path := c.String("in"); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open batch input: %w", err)
				}
				defer f.Close()
				src = f
			}
			inputs, err := payroll.ReadBatchCSV(src)
			if err != nil {
				return err
			}

			svc, err := payroll.NewService(schedule, "", nil)
			if err != nil {
				return err
			}
			results, err := svc.CalculateBatch(c.Context, jobs.NewPool(c.Int("workers")), inputs)
			if err != nil {
				return err
			}

			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create batch output: %w", err)
				}
				if err := payroll.WriteBatchCSV(f, inputs, results); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			}
			return payroll.WriteBatchCSV(c.App.Writer, inputs, results)
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "print the tax tiers and the derived net-to-gross conversion table",
		Flags: []cli.Flag{scheduleFlag, &cli.BoolFlag{Name: "json", Usage: "print the schedule as JSON"}},
		Action: func(c *cli.Context) error {
			schedule, err := loadSchedule(c.String("schedule"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, schedule.View())
			}
			return writeSchedule(c.App.Writer, schedule)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for the calculator API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "signing secret", EnvVars: []string{"JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "subject", Usage: "token subject, e.g. the calling system", Required: true},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
			&cli.StringSliceFlag{Name: "scope", Value: cli.NewStringSlice(auth.ScopeCalculate), Usage: "granted scopes"},
		},
		Action: func(c *cli.Context) error {
			token, err := auth.GenerateToken(c.String("secret"), c.String("subject"), c.StringSlice("scope"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func prepare(c *cli.Context) (*payroll.Service, payroll.Input, error) {
	schedule, err := loadSchedule(c.String("schedule"))
	if err != nil {
		return nil, payroll.Input{}, err
	}
	in, err := inputFromFlags(c)
	if err != nil {
		return nil, payroll.Input{}, err
	}
	svc, err := payroll.NewService(schedule, c.String("company"), nil)
	if err != nil {
		return nil, payroll.Input{}, err
	}
	return svc, in, nil
}

func loadSchedule(path string) (payroll.Schedule, error) {
	if path == "" {
		return payroll.DefaultSchedule(), nil
	}
	return payroll.LoadScheduleFile(path)
}

func inputFromFlags(c *cli.Context) (payroll.Input, error) {
	var in payroll.Input
	amounts := []struct {
		flag string
		dst  *float64
	}{
		{"net", &in.NetSalary},
		{"base", &in.BasicSalary},
		{"non-taxable", &in.NonTaxableIncome},
	}
	for _, a := range amounts {
		value, err := money.ParseAmount(c.String(a.flag))
		if err != nil {
			return payroll.Input{}, fmt.Errorf("--%s: %w", a.flag, err)
		}
		if value < 0 {
			return payroll.Input{}, fmt.Errorf("--%s must not be negative", a.flag)
		}
		*a.dst = value
	}
	in.Dependents = c.Int("dependents")
	if in.Dependents < 0 {
		return payroll.Input{}, fmt.Errorf("--dependents must not be negative")
	}
	return in, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBreakdown(w io.Writer, schedule payroll.Schedule, res payroll.Result) error {
	employee, employer := schedule.EmployeeRates(), schedule.EmployerRates()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	row := func(label string, amount float64) {
		fmt.Fprintf(tw, "%s\t%s\n", label, money.Format(amount))
	}
	rateRow := func(label string, rate, amount float64) {
		row(fmt.Sprintf("  %s (%s)", label, money.Percent(rate)), amount)
	}

	row("Net salary", res.NetSalary)
	row("Gross salary", res.GrossSalary)
	fmt.Fprintln(tw, "Employee insurance\t")
	rateRow("Social", employee.Social, res.EmployeeSI.SocialInsurance)
	rateRow("Health", employee.Health, res.EmployeeSI.HealthInsurance)
	rateRow("Unemployment", employee.Unemployment, res.EmployeeSI.UnemploymentInsurance)
	fmt.Fprintln(tw, "Personal income tax\t")
	row("  Total income", res.PIT.TotalIncome)
	row("  Personal deduction", res.PIT.PersonalDeduction)
	row("  Dependent deduction", res.PIT.DependentDeduction)
	row("  Insurance deduction", res.PIT.SIDeduction)
	row("  Non-taxable income", res.PIT.NonTaxableIncomeDeduction)
	row("  Taxable income", res.PIT.TaxableIncome)
	for _, b := range res.PIT.PITBrackets {
		row(fmt.Sprintf("  Bracket %d: %s x %s", b.Level, money.Format(b.IncomeInBracket), money.Percent(b.Rate)), b.TaxAmount)
	}
	row("  Tax due", res.PIT.PITAmount)
	fmt.Fprintln(tw, "Employer insurance\t")
	rateRow("Social", employer.Social, res.EmployerSI.SocialInsurance)
	rateRow("Health", employer.Health, res.EmployerSI.HealthInsurance)
	rateRow("Unemployment", employer.Unemployment, res.EmployerSI.UnemploymentInsurance)
	row("Total company cost", res.TotalCompanyCost)
	row("Total insurance", res.TotalSIContribution)
	row("Paid to government", res.TotalPaidToGovt)
	return tw.Flush()
}

func writeSchedule(w io.Writer, schedule payroll.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Personal deduction\t%s\n", money.Format(schedule.SelfDeduction()))
	fmt.Fprintf(tw, "Dependent deduction\t%s\n", money.Format(schedule.DependentDeduction()))
	fmt.Fprintf(tw, "Employee insurance\t%s\n", money.Percent(schedule.EmployeeRates().Total()))
	fmt.Fprintf(tw, "Employer insurance\t%s\n", money.Percent(schedule.EmployerRates().Total()))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Level\tTaxable up to\tRate\t")
	for _, tier := range schedule.Tiers() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", tier.Level, limit(tier.Ceiling), money.Percent(tier.Rate))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Level\tConverted up to\tSubtract\tDivisor\t")
	for _, tier := range schedule.ConversionTiers() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t\n", tier.Level, limit(tier.Threshold), money.Format(tier.Subtract), tier.Divisor)
	}
	return tw.Flush()
}

func limit(v float64) string {
	if math.IsInf(v, 1) {
		return "unbounded"
	}
	return money.Format(v)
}
