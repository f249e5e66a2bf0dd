package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/deduction"
	"github.com/MrJamesThe3rd/vykazy/internal/export"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type Handler struct {
	svc        *export.Service
	worklog    *worklog.Service
	finance    *finance.Service
	debts      *debt.Service
	deductions *deduction.Calculator
}

func NewHandler(
	svc *export.Service,
	worklogSvc *worklog.Service,
	financeSvc *finance.Service,
	debtSvc *debt.Service,
	calc *deduction.Calculator,
) *Handler {
	return &Handler{
		svc:        svc,
		worklog:    worklogSvc,
		finance:    financeSvc,
		debts:      debtSvc,
		deductions: calc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/work-sessions.csv", h.csv(export.WorkSessionsFile, h.writeWorkSessions))
	r.Get("/finance.csv", h.csv(export.FinanceFile, h.writeFinance))
	r.Get("/deductions.csv", h.csv(export.DeductionsFile, h.writeDeductions))
	r.Get("/debts.csv", h.csv(export.DebtsFile, h.writeDebts))
	r.Get("/all.zip", h.download)
}

type deductionResponse struct {
	Person        string  `json:"person"`
	Month         string  `json:"month"`
	HoursWorked   float64 `json:"hours_worked"`
	GrossEarnings int64   `json:"gross_earnings"`
	Deduction     int64   `json:"deduction"`
}

// Deductions lists the monthly deductions as JSON.
func (h *Handler) Deductions(w http.ResponseWriter, r *http.Request) {
	rows := h.deductions.Calculate(h.worklog.List(worklog.Filter{}))

	resp := make([]deductionResponse, len(rows))
	for i, d := range rows {
		resp[i] = deductionResponse{
			Person:        string(d.Person),
			Month:         d.MonthKey(),
			HoursWorked:   d.HoursWorked,
			GrossEarnings: d.GrossEarnings,
			Deduction:     d.Deduction,
		}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) writeWorkSessions(w io.Writer) error {
	sessions := h.worklog.List(worklog.Filter{})
	worklog.SortByStartDesc(sessions)

	return h.svc.WorkSessions(w, sessions)
}

func (h *Handler) writeFinance(w io.Writer) error {
	return h.svc.Finance(w, h.finance.List())
}

func (h *Handler) writeDeductions(w io.Writer) error {
	return h.svc.Deductions(w, h.deductions.Calculate(h.worklog.List(worklog.Filter{})))
}

func (h *Handler) writeDebts(w io.Writer) error {
	return h.svc.Debts(w, h.debts.ListDebts(), h.debts.AllPayments())
}

// csv renders the export into memory first so failures still produce a
// proper error status.
func (h *Handler) csv(name string, write func(io.Writer) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			respond.Error(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

		if _, err := buf.WriteTo(w); err != nil {
			slog.ErrorContext(r.Context(), "failed to write export", "file", name, "error", err)
		}
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{export.WorkSessionsFile, h.writeWorkSessions},
		{export.FinanceFile, h.writeFinance},
		{export.DeductionsFile, h.writeDeductions},
		{export.DebtsFile, h.writeDebts},
	}

	var buf bytes.Buffer

	zipWriter := zip.NewWriter(&buf)

	for _, f := range files {
		var content bytes.Buffer
		if err := f.write(&content); err != nil {
			if errors.Is(err, export.ErrEmpty) {
				continue
			}

			respond.Error(w, r, err)

			return
		}

		zf, err := zipWriter.Create(f.name)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if _, err := content.WriteTo(zf); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	if err := zipWriter.Close(); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"vykazy-export-%s.zip\"", timefmt.FileNameDate(time.Now())))

	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to write zip", "error", err)
	}
}
