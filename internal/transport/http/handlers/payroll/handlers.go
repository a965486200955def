package payrollhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/payroll"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/jobs"
	"github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/api"
	"github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/middleware"
	"github.com/phu68/Cong-cu-tinh-luong/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Batch   BatchConfig
	guards  []func(http.Handler) http.Handler
	now     func() time.Time
}

type BatchConfig struct {
	Pool     *jobs.Pool
	MaxItems int
}

// NewHandler builds the payroll routes. Guards run before every route, e.g.
// RequireAuth when the API is token protected.
func NewHandler(service *payroll.Service, batch BatchConfig, guards ...func(http.Handler) http.Handler) *Handler {
	if batch.Pool == nil {
		batch.Pool = jobs.NewPool(1)
	}
	return &Handler{Service: service, Batch: batch, guards: guards, now: time.Now}
}

type calculatePayload struct {
	NetSalary        *float64 `json:"netSalary"`
	BasicSalary      *float64 `json:"basicSalary"`
	NonTaxableIncome float64  `json:"nonTaxableIncome"`
	Dependents       int      `json:"dependents"`
}

type batchPayload struct {
	Items []calculatePayload `json:"items"`
}

type batchResponse struct {
	Count   int              `json:"count"`
	Results []payroll.Result `json:"results"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(h.guards...)
		r.Post("/net-to-gross", h.handleNetToGross)
		r.Post("/net-to-gross/payslip", h.handlePayslip)
		r.Post("/net-to-gross/batch", h.handleBatch)
		r.Get("/schedule", h.handleSchedule)
	})
}

func (h *Handler) handleNetToGross(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	res := h.Service.Calculate(in)
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	res := h.Service.Calculate(in)

	var buf bytes.Buffer
	if err := h.Service.WritePayslipPDF(&buf, res, h.now()); err != nil {
		slog.Error("payslip render failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payslip.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("payslip write failed", "err", err)
	}
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload batchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	switch {
	case len(payload.Items) == 0:
		v.Add("items", "must not be empty")
	case h.Batch.MaxItems > 0 && len(payload.Items) > h.Batch.MaxItems:
		v.Add("items", fmt.Sprintf("must not exceed %d entries", h.Batch.MaxItems))
	}
	if v.Reject(w, requestID) {
		return
	}

	inputs := make([]payroll.Input, len(payload.Items))
	for i, item := range payload.Items {
		inputs[i] = validateInput(v, fmt.Sprintf("items[%d].", i), item)
	}
	if v.Reject(w, requestID) {
		return
	}

	results, err := h.Service.CalculateBatch(r.Context(), h.Batch.Pool, inputs)
	if err != nil {
		slog.Warn("batch calculation aborted", "err", err, "items", len(inputs), "requestId", requestID)
		api.Fail(w, http.StatusServiceUnavailable, "batch_aborted", "batch calculation aborted", requestID)
		return
	}
	api.Success(w, batchResponse{Count: len(results), Results: results}, requestID)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.Schedule().View(), middleware.GetRequestID(r.Context()))
}

func decodeInput(w http.ResponseWriter, r *http.Request) (payroll.Input, bool) {
	requestID := middleware.GetRequestID(r.Context())

	var payload calculatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return payroll.Input{}, false
	}

	v := shared.NewValidator()
	in := validateInput(v, "", payload)
	if v.Reject(w, requestID) {
		return payroll.Input{}, false
	}
	return in, true
}

func validateInput(v *shared.Validator, prefix string, payload calculatePayload) payroll.Input {
	v.Amount(prefix+"nonTaxableIncome", payload.NonTaxableIncome)
	v.Count(prefix+"dependents", payload.Dependents)
	return payroll.Input{
		NetSalary:        v.RequiredAmount(prefix+"netSalary", payload.NetSalary),
		BasicSalary:      v.RequiredAmount(prefix+"basicSalary", payload.BasicSalary),
		NonTaxableIncome: payload.NonTaxableIncome,
		Dependents:       payload.Dependents,
	}
}
