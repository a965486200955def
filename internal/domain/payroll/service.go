package payroll

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/money"
)

type CalculationRecorder interface {
	ObserveCalculation(outcome string, topBracket int)
}

type Service struct {
	schedule Schedule
	company  string
	recorder CalculationRecorder
}

// NewService rejects a schedule that did not come from NewSchedule, since its
// empty tier tables would compute no tax for any input.
func NewService(schedule Schedule, company string, recorder CalculationRecorder) (*Service, error) {
	if !schedule.Valid() {
		return nil, fmt.Errorf("%w: schedule has no tax tiers", ErrInvalidSchedule)
	}
	return &Service{schedule: schedule, company: company, recorder: recorder}, nil
}

func (s *Service) Schedule() Schedule {
	return s.schedule
}

func (s *Service) Calculate(in Input) Result {
	res := Calculate(s.schedule, in)
	if s.recorder != nil {
		s.recorder.ObserveCalculation(Outcome(in, res), res.TopBracket())
	}
	return res
}

// WritePayslipPDF renders the breakdown of res as a one-page A4 payslip.
func (s *Service) WritePayslipPDF(w io.Writer, res Result, issued time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	if s.company != "" {
		pdf.Cell(0, 7, s.company)
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, "Issued: "+issued.Format("2006-01-02"))
	pdf.Ln(10)

	section(pdf, "Employee")
	line(pdf, "Gross salary", res.GrossSalary)
	line(pdf, "Social insurance (employee)", -res.EmployeeSI.SocialInsurance)
	line(pdf, "Health insurance (employee)", -res.EmployeeSI.HealthInsurance)
	line(pdf, "Unemployment insurance (employee)", -res.EmployeeSI.UnemploymentInsurance)
	line(pdf, "Personal income tax", -res.PIT.PITAmount)
	line(pdf, "Net salary", res.NetSalary)
	pdf.Ln(4)

	section(pdf, "Personal income tax")
	line(pdf, "Total income", res.PIT.TotalIncome)
	line(pdf, "Personal deduction", res.PIT.PersonalDeduction)
	line(pdf, "Dependent deduction", res.PIT.DependentDeduction)
	line(pdf, "Insurance deduction", res.PIT.SIDeduction)
	line(pdf, "Non-taxable income", res.PIT.NonTaxableIncomeDeduction)
	line(pdf, "Taxable income", res.PIT.TaxableIncome)
	for _, bracket := range res.PIT.PITBrackets {
		label := fmt.Sprintf("Bracket %d: %s x %s", bracket.Level, money.Format(bracket.IncomeInBracket), money.Percent(bracket.Rate))
		line(pdf, label, bracket.TaxAmount)
	}
	line(pdf, "Tax due", res.PIT.PITAmount)
	pdf.Ln(4)

	section(pdf, "Employer")
	line(pdf, "Social insurance (employer)", res.EmployerSI.SocialInsurance)
	line(pdf, "Health insurance (employer)", res.EmployerSI.HealthInsurance)
	line(pdf, "Unemployment insurance (employer)", res.EmployerSI.UnemploymentInsurance)
	line(pdf, "Total insurance contribution", res.TotalSIContribution)
	line(pdf, "Paid to government", res.TotalPaidToGovt)
	line(pdf, "Total company cost", res.TotalCompanyCost)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, money.Format(amount)+" VND", "", 1, "R", false, 0, "")
}
