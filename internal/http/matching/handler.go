package matching

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
}

type suggestResponse struct {
	Description string       `json:"description"`
	Type        finance.Type `json:"type"`
	Category    string       `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		respond.BadRequest(w, r, "description query parameter is required")
		return
	}

	typ := finance.Type(r.URL.Query().Get("type"))
	if typ == "" {
		typ = finance.TypeExpense
	}

	respond.JSON(w, r, http.StatusOK, suggestResponse{
		Description: desc,
		Type:        typ,
		Category:    h.svc.Suggest(desc, typ),
	})
}
