package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/Dan9191/coop-ledger/internal/report"
	"github.com/Dan9191/coop-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Pinger reports storage health
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc *service.Service
	agg *report.Aggregator
	exp *report.Exporter
	db  Pinger
	log *logrus.Logger
}

func NewHandler(svc *service.Service, agg *report.Aggregator, exp *report.Exporter, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, agg: agg, exp: exp, db: db, log: log}
}

type addMemberRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type issueLoanRequest struct {
	MemberID  int64           `json:"member_id"`
	Principal decimal.Decimal `json:"principal"`
	TermDays  int             `json:"term_days"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type exportResponse struct {
	File string `json:"file"`
}

// AddMember handles member intake
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.svc.AddMember(r.Context(), req.Name, req.Address, req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: m.ID})
}

// ListMembers handles listing all members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// GetMember handles fetching one member
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.GetMember(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MemberSummary handles a member's loans and installments
func (h *Handler) MemberSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.agg.MemberSummary(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// IssueLoan handles loan issuance
func (h *Handler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	var req issueLoanRequest
	if !h.decode(w, r, &req) {
		return
	}
	l, err := h.svc.IssueLoan(r.Context(), req.MemberID, req.Principal, req.TermDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: l.ID})
}

// ListLoans handles listing all loans with warnings
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.svc.ListLoans(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// GetLoan handles fetching one loan
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	l, err := h.svc.GetLoan(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// OverdueLoans handles the overdue report
func (h *Handler) OverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.agg.OverdueLoans(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// RecordPayment handles a daily installment
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := h.svc.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: in.ID})
}

// LoanInstallments handles listing a loan's installments
func (h *Handler) LoanInstallments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	installments, err := h.svc.ListLoanInstallments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, installments)
}

// ListInstallments handles listing all installments
func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	installments, err := h.svc.ListInstallments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, installments)
}

// MonthlySummary handles the monthly totals
func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.agg.MonthlySummary(r.Context(), mux.Vars(r)["period"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ExportOverdue handles writing the overdue workbook
func (h *Handler) ExportOverdue(w http.ResponseWriter, r *http.Request) {
	file, err := h.exp.ExportOverdue(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{File: file})
}

// ExportMonthly handles writing the monthly workbook
func (h *Handler) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	file, err := h.exp.ExportMonthly(r.Context(), mux.Vars(r)["period"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{File: file})
}

// ExportMember handles writing a member workbook
func (h *Handler) ExportMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	file, err := h.exp.ExportMember(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{File: file})
}

// Health reports whether the ledger store is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps error kinds to status codes; only unexpected failures are logged
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case models.IsNotFound(err):
		status = http.StatusNotFound
	case models.IsInvalidInput(err):
		status = http.StatusBadRequest
	default:
		h.log.WithField("request_id", RequestID(r.Context())).Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
