package worklog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type Handler struct {
	svc *worklog.Service
}

func NewHandler(svc *worklog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/days", h.days)
	r.Get("/breakdown", h.breakdown)
	r.Get("/activities", h.activities)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type entryRequest struct {
	Person       person.Person `json:"person"`
	Date         timefmt.Date  `json:"date"`
	Start        string        `json:"start"`
	End          string        `json:"end"`
	BreakMinutes int           `json:"break_minutes"`
	Activity     string        `json:"activity"`
	Note         string        `json:"note"`
}

func (e entryRequest) toEntry() worklog.ManualEntry {
	return worklog.ManualEntry{
		Person:       e.Person,
		Date:         e.Date,
		Start:        e.Start,
		End:          e.End,
		BreakMinutes: e.BreakMinutes,
		Activity:     e.Activity,
		Note:         e.Note,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	ws, err := h.svc.CreateManual(r.Context(), req.toEntry())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, ws)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	ws, err := h.svc.UpdateManual(r.Context(), chi.URLParam(r, "id"), req.toEntry())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, ws)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	respond.JSON(w, r, http.StatusOK, h.svc.List(filter))
}

type dayResponse struct {
	Date          timefmt.Date          `json:"date"`
	Sessions      []worklog.WorkSession `json:"sessions"`
	TotalHours    float64               `json:"total_hours"`
	TotalEarnings int64                 `json:"total_earnings"`
}

func (h *Handler) days(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	groups := h.svc.GroupByDay(h.svc.List(filter))

	resp := make([]dayResponse, len(groups))
	for i, g := range groups {
		resp[i] = dayResponse{
			Date:          g.Date,
			Sessions:      g.Sessions,
			TotalHours:    g.TotalHours,
			TotalEarnings: g.TotalEarnings,
		}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

type bucketResponse struct {
	Label string  `json:"label"`
	Hours float64 `json:"hours"`
}

var dimensions = map[string]worklog.Dimension{
	"person":   worklog.ByPerson,
	"activity": worklog.ByActivity,
	"month":    worklog.ByMonth,
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "person"
	}

	dim, ok := dimensions[by]
	if !ok {
		respond.BadRequest(w, r, "by must be person, activity or month")
		return
	}

	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	buckets := h.svc.Breakdown(h.svc.List(filter), dim)

	resp := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		resp[i] = bucketResponse{Label: b.Label, Hours: b.Hours}
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	activities := h.svc.Activities()
	if activities == nil {
		activities = []string{}
	}

	respond.JSON(w, r, http.StatusOK, activities)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, ws)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseFilter reads person, activity, start_date and end_date from the query.
// It writes a 400 and returns false on malformed dates.
func parseFilter(w http.ResponseWriter, r *http.Request) (worklog.Filter, bool) {
	q := r.URL.Query()

	filter := worklog.Filter{
		Person:   person.Person(q.Get("person")),
		Activity: q.Get("activity"),
	}

	var err error

	if filter.StartDate, err = timefmt.ParseDate(q.Get("start_date")); err != nil {
		respond.BadRequest(w, r, "invalid start_date")
		return worklog.Filter{}, false
	}

	if filter.EndDate, err = timefmt.ParseDate(q.Get("end_date")); err != nil {
		respond.BadRequest(w, r, "invalid end_date")
		return worklog.Filter{}, false
	}

	return filter, true
}
