package settings

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
)

type Handler struct {
	svc *settings.Service
}

func NewHandler(svc *settings.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/rent", h.setRent)
	r.Post("/{list}", h.addCategory)
	r.Delete("/{list}/{name}", h.removeCategory)
}

type settingsResponse struct {
	TaskCategories    []string      `json:"taskCategories"`
	ExpenseCategories []string      `json:"expenseCategories"`
	Rent              settings.Rent `json:"rentSettings"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, settingsResponse{
		TaskCategories:    h.svc.TaskCategories(),
		ExpenseCategories: h.svc.ExpenseCategories(),
		Rent:              h.svc.Rent(),
	})
}

func (h *Handler) setRent(w http.ResponseWriter, r *http.Request) {
	var rent settings.Rent
	if err := respond.Decode(r, &rent); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	if err := h.svc.SetRent(r.Context(), rent); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, h.svc.Rent())
}

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryOps struct {
	add    func(context.Context, string) error
	remove func(context.Context, string) error
}

func (h *Handler) ops(list string) (categoryOps, bool) {
	switch list {
	case "tasks":
		return categoryOps{add: h.svc.AddTaskCategory, remove: h.svc.RemoveTaskCategory}, true
	case "expenses":
		return categoryOps{add: h.svc.AddExpenseCategory, remove: h.svc.RemoveExpenseCategory}, true
	}

	return categoryOps{}, false
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.ops(chi.URLParam(r, "list"))
	if !ok {
		respond.BadRequest(w, r, "list must be tasks or expenses")
		return
	}

	var req categoryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	if err := ops.add(r.Context(), req.Name); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.get(w, r)
}

func (h *Handler) removeCategory(w http.ResponseWriter, r *http.Request) {
	ops, ok := h.ops(chi.URLParam(r, "list"))
	if !ok {
		respond.BadRequest(w, r, "list must be tasks or expenses")
		return
	}

	if err := ops.remove(r.Context(), chi.URLParam(r, "name")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
