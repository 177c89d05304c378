package handler

import (
	"github.com/gorilla/mux"
)

// NewRouter wires every ledger operation to a route
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(h.log))

	r.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/members", h.AddMember).Methods("POST")
	r.HandleFunc("/members", h.ListMembers).Methods("GET")
	r.HandleFunc("/members/{id:[0-9]+}", h.GetMember).Methods("GET")
	r.HandleFunc("/members/{id:[0-9]+}/summary", h.MemberSummary).Methods("GET")

	r.HandleFunc("/loans", h.IssueLoan).Methods("POST")
	r.HandleFunc("/loans", h.ListLoans).Methods("GET")
	r.HandleFunc("/loans/overdue", h.OverdueLoans).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}", h.GetLoan).Methods("GET")
	r.HandleFunc("/loans/{id:[0-9]+}/payments", h.RecordPayment).Methods("POST")
	r.HandleFunc("/loans/{id:[0-9]+}/installments", h.LoanInstallments).Methods("GET")

	r.HandleFunc("/installments", h.ListInstallments).Methods("GET")

	r.HandleFunc("/reports/monthly/{period}", h.MonthlySummary).Methods("GET")
	r.HandleFunc("/exports/overdue", h.ExportOverdue).Methods("POST")
	r.HandleFunc("/exports/monthly/{period}", h.ExportMonthly).Methods("POST")
	r.HandleFunc("/exports/members/{id:[0-9]+}", h.ExportMember).Methods("POST")

	return r
}
