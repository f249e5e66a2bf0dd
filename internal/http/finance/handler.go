package finance

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

type Handler struct {
	svc *finance.Service
}

func NewHandler(svc *finance.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
}

type createRecordRequest struct {
	Type        finance.Type    `json:"type"`
	Date        timefmt.Date    `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	rec, err := h.svc.Create(r.Context(), finance.CreateParams{
		Type:        req.Type,
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, rec)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records := h.svc.List()

	q := r.URL.Query()
	typ := finance.Type(q.Get("type"))
	category := q.Get("category")

	from, err := optionalDate(q.Get("start_date"))
	if err != nil {
		respond.BadRequest(w, r, "invalid start_date")
		return
	}

	until, err := optionalDate(q.Get("end_date"))
	if err != nil {
		respond.BadRequest(w, r, "invalid end_date")
		return
	}

	out := make([]finance.Record, 0, len(records))

	for _, rec := range records {
		switch {
		case typ != "" && rec.Type != typ:
			continue
		case category != "" && rec.Category != category:
			continue
		case !from.IsZero() && rec.Date.Compare(from) < 0:
			continue
		case !until.IsZero() && rec.Date.Compare(until) > 0:
			continue
		}

		out = append(out, rec)
	}

	respond.JSON(w, r, http.StatusOK, out)
}

type totalsResponse struct {
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	totals := finance.Summarize(h.svc.List())

	resp := make([]totalsResponse, len(totals))
	for i, t := range totals {
		resp[i] = totalsResponse{
			Currency: t.Currency,
			Income:   t.Income,
			Expense:  t.Expense,
			Balance:  t.Balance(),
		}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateRecordRequest struct {
	Type        *finance.Type    `json:"type,omitempty"`
	Date        *timefmt.Date    `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRecordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	rec, err := h.svc.Get(id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	params := finance.CreateParams{
		Type:        rec.Type,
		Date:        rec.Date,
		Description: rec.Description,
		Category:    rec.Category,
		Amount:      rec.Amount,
		Currency:    rec.Currency,
	}

	if req.Type != nil {
		params.Type = *req.Type
	}

	if req.Date != nil {
		params.Date = *req.Date
	}

	if req.Description != nil {
		params.Description = *req.Description
	}

	if req.Category != nil {
		params.Category = *req.Category
	}

	if req.Amount != nil {
		params.Amount = *req.Amount
	}

	if req.Currency != nil {
		params.Currency = *req.Currency
	}

	rec, err = h.svc.Update(r.Context(), id, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, rec)
}

func optionalDate(s string) (timefmt.Date, error) {
	if s == "" {
		return timefmt.Date{}, nil
	}

	return timefmt.ParseDate(s)
}
