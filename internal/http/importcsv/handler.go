package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/http/respond"
	"github.com/MrJamesThe3rd/vykazy/internal/importer"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc  *importer.Service
	financeSvc *finance.Service
}

func NewHandler(importSvc *importer.Service, financeSvc *finance.Service) *Handler {
	return &Handler{
		importSvc:  importSvc,
		financeSvc: financeSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/preview", h.previewCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported int              `json:"imported"`
	Records  []finance.Record `json:"records"`
}

type createParamsDTO struct {
	Type        finance.Type    `json:"type"`
	Date        timefmt.Date    `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type conflictDTO struct {
	Incoming createParamsDTO `json:"incoming"`
	Existing finance.Record  `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type previewRowDTO struct {
	createParamsDTO
	Suggested bool            `json:"suggested"`
	Existing  *finance.Record `json:"existing,omitempty"`
}

type previewResponse struct {
	Layout string         `json:"layout"`
	Rows   []previewRowDTO `json:"rows"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

// importCSV answers 201 when every row was stored and 409 with the new rows
// and the conflicts when some rows look like stored records. Nothing is
// written in the second case; the client resubmits its choice to /confirm.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, r, "failed to parse form: "+err.Error())
		return
	}

	source := importer.Source(r.FormValue("source"))
	if source == "" {
		source = importer.SourceCSV
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), source, file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: c.Existing,
			})
		}

		respond.JSON(w, r, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, r, http.StatusCreated, toSuccessResponse(result.Imported))
}

// previewCSV parses the upload and returns every row with its suggested
// category and duplicate marker. Nothing is written.
func (h *Handler) previewCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, r, "failed to parse form: "+err.Error())
		return
	}

	source := importer.Source(r.FormValue("source"))
	if source == "" {
		source = importer.SourceCSV
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file field is required")
		return
	}
	defer file.Close()

	preview, err := h.importSvc.Preview(source, file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := previewResponse{
		Layout: preview.Layout,
		Rows:   make([]previewRowDTO, 0, len(preview.Rows)),
	}
	for _, row := range preview.Rows {
		resp.Rows = append(resp.Rows, previewRowDTO{
			createParamsDTO: toParamsDTO(row.Params),
			Suggested:       row.Suggested,
			Existing:        row.Existing,
		})
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	params := make([]finance.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, finance.CreateParams{
			Type:        p.Type,
			Date:        p.Date,
			Description: p.Description,
			Category:    p.Category,
			Amount:      p.Amount,
			Currency:    p.Currency,
		})
	}

	recs, err := h.financeSvc.CreateBatch(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toSuccessResponse(recs))
}

func toSuccessResponse(recs []finance.Record) importSuccessResponse {
	if recs == nil {
		recs = []finance.Record{}
	}

	return importSuccessResponse{
		Imported: len(recs),
		Records:  recs,
	}
}

func toParamsDTO(p finance.CreateParams) createParamsDTO {
	return createParamsDTO{
		Type:        p.Type,
		Date:        p.Date,
		Description: p.Description,
		Category:    p.Category,
		Amount:      p.Amount,
		Currency:    p.Currency,
	}
}
