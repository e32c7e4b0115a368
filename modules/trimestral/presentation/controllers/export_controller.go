package controllers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/httpapi"
)

const exportSheet = "Registros"

type Exporter interface {
	Export(ctx context.Context) ([]*record.Record, error)
}

type ExportController struct {
	exporter Exporter
	auth     mux.MiddlewareFunc
	admin    mux.MiddlewareFunc
}

func NewExportController(exporter Exporter, auth, admin mux.MiddlewareFunc) *ExportController {
	return &ExportController{exporter: exporter, auth: auth, admin: admin}
}

func (c *ExportController) Key() string {
	return "/api/export"
}

func (c *ExportController) Register(r *mux.Router) {
	export := r.PathPrefix("/api/export").Subrouter()
	export.Use(c.auth, c.admin)
	export.HandleFunc("/records", c.Records).Methods(http.MethodGet)

	backup := r.PathPrefix("/api/backup").Subrouter()
	backup.Use(c.auth, c.admin)
	backup.HandleFunc("/export", c.Backup).Methods(http.MethodGet)
}

func (c *ExportController) Records(w http.ResponseWriter, r *http.Request) {
	recs, err := c.exporter.Export(r.Context())
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("export failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al exportar registros")
		return
	}

	name := fmt.Sprintf("registros_trimestral_%s", time.Now().Format("20060102"))
	switch r.URL.Query().Get("format") {
	case "xlsx":
		c.writeXLSX(w, r, name, recs)
	case "csv", "":
		c.writeCSV(w, r, name, recs)
	default:
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_FORMAT", "Formato no soportado, use csv o xlsx")
	}
}

func (c *ExportController) writeCSV(w http.ResponseWriter, r *http.Request, name string, recs []*record.Record) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))

	// BOM keeps Excel from mangling accented names
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(record.ExportHeader()); err != nil {
		return
	}
	for _, rec := range recs {
		if err := cw.Write(rec.Fields()); err != nil {
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("csv export write failed")
	}
}

func (c *ExportController) writeXLSX(w http.ResponseWriter, r *http.Request, name string, recs []*record.Record) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al generar el archivo")
		return
	}

	header := toCells(record.ExportHeader())
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al generar el archivo")
		return
	}
	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al generar el archivo")
			return
		}
		row := toCells(rec.Fields())
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al generar el archivo")
			return
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	if err := f.Write(w); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("xlsx export write failed")
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

type backupResponse struct {
	Success    bool          `json:"success"`
	ExportedAt time.Time     `json:"exported_at"`
	Count      int           `json:"count"`
	Records    []*recordJSON `json:"records"`
}

func (c *ExportController) Backup(w http.ResponseWriter, r *http.Request) {
	recs, err := c.exporter.Export(r.Context())
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("backup export failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al generar el respaldo")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(
		"attachment; filename=%q",
		fmt.Sprintf("respaldo_trimestral_%s.json", time.Now().Format("20060102_150405")),
	))
	_ = httpapi.WriteJSON(w, http.StatusOK, &backupResponse{
		Success:    true,
		ExportedAt: time.Now().UTC(),
		Count:      len(recs),
		Records:    toRecordList(recs),
	})
}
