package timer

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/person"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/timer"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

type Handler struct {
	// ctx bounds the tick loop; a request context would end it with the request.
	ctx   context.Context
	timer *timer.Timer
}

func NewHandler(ctx context.Context, t *timer.Timer) *Handler {
	return &Handler{ctx: ctx, timer: t}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.status)
	r.Post("/start", h.start)
	r.Post("/pause", h.pause)
	r.Post("/stop", h.stop)
	r.Post("/reset", h.reset)
}

type snapshotResponse struct {
	State     string        `json:"state"`
	Person    person.Person `json:"person,omitempty"`
	Activity  string        `json:"activity,omitempty"`
	Note      string        `json:"note,omitempty"`
	ElapsedMs int64         `json:"elapsed_ms"`
	Elapsed   string        `json:"elapsed"`
	Earnings  int64         `json:"earnings"`
}

func toResponse(s timer.Snapshot) snapshotResponse {
	return snapshotResponse{
		State:     s.State.String(),
		Person:    s.Person,
		Activity:  s.Activity,
		Note:      s.Note,
		ElapsedMs: s.Elapsed.Milliseconds(),
		Elapsed:   timefmt.FormatDuration(s.Elapsed.Milliseconds()),
		Earnings:  s.Earnings,
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, toResponse(h.timer.Tick()))
}

type startRequest struct {
	Person   person.Person `json:"person"`
	Activity string        `json:"activity"`
	Note     string        `json:"note"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	if err := h.timer.Start(h.ctx, req.Person, req.Activity, req.Note); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(h.timer.Tick()))
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	h.timer.Pause()
	respond.JSON(w, r, http.StatusOK, toResponse(h.timer.Tick()))
}

type stopResponse struct {
	Session *worklog.WorkSession `json:"session"`
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	session, err := h.timer.Stop(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, stopResponse{Session: session})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	h.timer.Reset()
	w.WriteHeader(http.StatusNoContent)
}
