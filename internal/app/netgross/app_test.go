package netgross

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/auth"
	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/payroll"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PAYROLL_SCHEDULE_FILE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PAYSLIP_COMPANY", "")

	var out, errOut bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"netgross"}, args...))
	return out.String(), err
}

func TestCalcDefaultsToReferenceScenario(t *testing.T) {
	out, err := run(t, "calc")
	require.NoError(t, err)
	assert.Contains(t, out, "32.143.765")
	assert.Contains(t, out, "Bracket 3")
	assert.Contains(t, out, "33.261.765")
}

func TestCalcJSON(t *testing.T) {
	out, err := run(t, "calc", "--net", "30,000,000", "--base", "5200000", "--dependents", "1", "--json")
	require.NoError(t, err)

	var res payroll.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 32_143_764.705882353, res.GrossSalary, 1e-6)
	assert.InDelta(t, 3_261_764.705882353, res.TotalPaidToGovt, 1e-6)
}

func TestCalcRejectsBadAmounts(t *testing.T) {
	_, err := run(t, "calc", "--net", "abc")
	assert.ErrorContains(t, err, "--net")

	_, err = run(t, "calc", "--base", "-1")
	assert.ErrorContains(t, err, "must not be negative")

	_, err = run(t, "calc", "--dependents", "-2")
	assert.ErrorContains(t, err, "--dependents")
}

func TestCalcWithScheduleFile(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "payroll_schedule.yaml")
	out, err := run(t, "calc", "--schedule", path, "--json")
	require.NoError(t, err)
	var res payroll.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 32_143_764.705882353, res.GrossSalary, 1e-6)

	_, err = run(t, "calc", "--schedule", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, payroll.ErrScheduleFile)
}

func TestPayslipWritesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payslip.pdf")
	out, err := run(t, "payslip", "--out", path, "--company", "Acme")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = run(t, "payslip")
	assert.Error(t, err)
}

func TestBatchConvertsCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "staff.csv")
	out := filepath.Join(dir, "gross.csv")
	require.NoError(t, os.WriteFile(in, []byte("net_salary,basic_salary,dependents\n30000000,5200000,1\n0,5200000,0\n"), 0o600))

	_, err := run(t, "batch", "--in", in, "--out", out, "--workers", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "30000000,5200000,0,1,32143765,"))
	assert.True(t, strings.HasPrefix(lines[2], "0,5200000,0,0,0,"))

	stdout, err := run(t, "batch", "--in", in)
	require.NoError(t, err)
	assert.Equal(t, string(data), stdout)
}

func TestBatchRejectsBadCSV(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(in, []byte("salary\n1\n"), 0o600))
	_, err := run(t, "batch", "--in", in)
	assert.ErrorIs(t, err, payroll.ErrInvalidBatch)
}

func TestScheduleOutput(t *testing.T) {
	out, err := run(t, "schedule")
	require.NoError(t, err)
	assert.Contains(t, out, "unbounded")
	assert.Contains(t, out, "16.050.000")
	assert.Contains(t, out, "11.000.000")

	out, err = run(t, "schedule", "--json")
	require.NoError(t, err)
	var view payroll.ScheduleView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, payroll.DefaultSchedule().View(), view)
}

func TestTokenIssuesParseableToken(t *testing.T) {
	out, err := run(t, "token", "--secret", "s3cret", "--subject", "hr-portal")
	require.NoError(t, err)

	claims, err := auth.ParseToken("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	principal := claims.Principal()
	assert.Equal(t, "hr-portal", principal.Subject)
	assert.True(t, principal.HasScope(auth.ScopeCalculate))

	_, err = run(t, "token", "--subject", "x")
	assert.Error(t, err)
}
