package debt

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

type Handler struct {
	svc *debt.Service
	loc *time.Location
}

func NewHandler(svc *debt.Service, loc *time.Location) *Handler {
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/payments", h.payments)
	r.Post("/{id}/payments", h.recordPayment)
}

type debtRequest struct {
	Person      person.Person   `json:"person"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        timefmt.Date    `json:"date"`
	DueDate     timefmt.Date    `json:"due_date"`
}

func (req debtRequest) toParams() debt.CreateParams {
	return debt.CreateParams{
		Person:      req.Person,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        req.Date,
		DueDate:     req.DueDate,
	}
}

type debtResponse struct {
	debt.Debt
	Status    debt.Status     `json:"status"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
	Percent   float64         `json:"percent"`
}

func (h *Handler) toResponse(d debt.Debt) debtResponse {
	resp := debtResponse{
		Debt:   d,
		Status: debt.StatusOf(d, timefmt.DateOf(time.Now(), h.loc)),
	}

	if pr, err := h.svc.Progress(d.ID); err == nil {
		resp.TotalPaid = pr.TotalPaid
		resp.Percent = pr.Percent
	}

	return resp
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	d, err := h.svc.CreateDebt(r.Context(), req.toParams())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, h.toResponse(d))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	d, err := h.svc.UpdateDebt(r.Context(), chi.URLParam(r, "id"), req.toParams())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, h.toResponse(d))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	debts := h.svc.ListDebts()
	if r.URL.Query().Get("active") == "true" {
		debts = h.svc.ListActiveDebts()
	}

	resp := make([]debtResponse, len(debts))
	for i, d := range debts {
		resp[i] = h.toResponse(d)
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDebt(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, h.toResponse(d))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetDebt(id); err != nil {
		respond.Error(w, r, err)
		return
	}

	payments := h.svc.Payments(id)
	if payments == nil {
		payments = []debt.Payment{}
	}

	respond.JSON(w, r, http.StatusOK, payments)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   timefmt.Date    `json:"date"`
	Note   string          `json:"note"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	p, err := h.svc.RecordPayment(r.Context(), debt.PaymentParams{
		DebtID: chi.URLParam(r, "id"),
		Amount: req.Amount,
		Date:   req.Date,
		Note:   req.Note,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, p)
}
