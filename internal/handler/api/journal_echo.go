package api

import (
	"encoding/csv"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"ICTWatch/internal/domain/models"
	domrepo "ICTWatch/internal/domain/repository"
	xhttp "ICTWatch/pkg/http"
	"ICTWatch/pkg/http/middleware"
	xlogger "ICTWatch/pkg/logger"
)

var journalPage = template.Must(template.New("journal").Parse(`<html><head><meta charset="utf-8"><title>Journal</title>
<style>table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:4px;font:12px system-ui}</style>
</head><body>
{{if .Rows}}<h3>Last {{len .Rows}} journal rows</h3>
<p>Use <code>/journal.csv</code> to download; <code>/journal.json</code> for API.</p>
<table><thead><tr>{{range .Cols}}<th>{{.}}</th>{{end}}</tr></thead><tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody></table>{{else}}<h3>No journal rows yet</h3>{{end}}
</body></html>`))

// JournalEchoHandler serves the trade journal read-only over HTTP.
type JournalEchoHandler struct {
	logger  *xlogger.Logger
	journal domrepo.Journal
	apiKey  string
}

func NewJournalEchoHandler(logger *xlogger.Logger, journal domrepo.Journal, apiKey string) *JournalEchoHandler {
	return &JournalEchoHandler{logger: logger.With("journal-api"), journal: journal, apiKey: apiKey}
}

func (h *JournalEchoHandler) RegisterRoutes(e *echo.Echo) {
	auth := middleware.APIKey(h.apiKey)
	e.GET("/health", h.Health)
	e.GET("/journal.csv", h.CSV, auth)
	e.GET("/journal.json", h.JSON, auth)
	e.GET("/journal", h.HTML, auth)
}

func (h *JournalEchoHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *JournalEchoHandler) CSV(c echo.Context) error {
	req := &models.JournalExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.journal.ReadLast(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("journal read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("journal unavailable").WithError(err))
	}
	if len(rows) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no journal yet"))
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
	res.WriteHeader(http.StatusOK)
	w := csv.NewWriter(res)
	_ = w.Write(models.JournalFields)
	for _, r := range rows {
		_ = w.Write(r.Record())
	}
	w.Flush()
	return w.Error()
}

func (h *JournalEchoHandler) JSON(c echo.Context) error {
	rows, err := h.read(c)
	if err != nil {
		return err
	}
	if rows == nil {
		return nil
	}
	return xhttp.SuccessResponse(c, models.JournalPage{Rows: rows, Count: len(rows)})
}

// HTML renders the newest rows first.
func (h *JournalEchoHandler) HTML(c echo.Context) error {
	rows, err := h.read(c)
	if err != nil || rows == nil {
		return err
	}
	data := struct {
		Cols []string
		Rows [][]string
	}{Cols: models.JournalFields}
	for i := len(rows) - 1; i >= 0; i-- {
		data.Rows = append(data.Rows, rows[i].Record())
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return journalPage.Execute(c.Response(), data)
}

// read returns nil rows when it has already written an error response.
func (h *JournalEchoHandler) read(c echo.Context) ([]models.JournalRow, error) {
	req := &models.JournalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.journal.ReadLast(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("journal read failed", xlogger.Error(err))
		return nil, xhttp.AppErrorResponse(c, xhttp.InternalError("journal unavailable").WithError(err))
	}
	if rows == nil {
		rows = []models.JournalRow{}
	}
	return rows, nil
}
