package controllers_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/presentation/controllers"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/middleware"
)

type stubExporter struct {
	recs []*record.Record
}

func (s *stubExporter) Export(context.Context) ([]*record.Record, error) {
	return s.recs, nil
}

func exportRouter(exp controllers.Exporter, session *composables.Session) *mux.Router {
	c := controllers.NewExportController(exp, fakeAuth(session), middleware.RequireAdmin())
	r := mux.NewRouter()
	c.Register(r)
	return r
}

func exportedRecords() []*record.Record {
	return []*record.Record{
		record.FromInput(record.RowInput{
			Trimestre: "2024-T1",
			Nombre:    "María José",
			CURP:      "GARC800101HDFRRL09",
		}, "cap1"),
		record.FromInput(record.RowInput{
			Trimestre: "2024-T2",
			Nombre:    "Pedro",
		}, "cap1"),
	}
}

func TestExportRecords_CSV(t *testing.T) {
	router := exportRouter(&stubExporter{recs: exportedRecords()}, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/export/records", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".csv")

	body := rr.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(body[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, record.ExportHeader(), rows[0])
	assert.Equal(t, "2024-T1", rows[1][0])
	assert.Equal(t, "GARC800101HDFRRL09", rows[1][5])
	assert.Equal(t, "PENDIENTE", rows[2][6])
}

func TestExportRecords_XLSX(t *testing.T) {
	router := exportRouter(&stubExporter{recs: exportedRecords()}, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/export/records?format=xlsx", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Registros")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "trimestre", rows[0][0])
	assert.Equal(t, "María José", rows[1][4])
}

func TestExportRecords_BadFormat(t *testing.T) {
	router := exportRouter(&stubExporter{}, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/export/records?format=pdf", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBackup_AdminOnly(t *testing.T) {
	router := exportRouter(&stubExporter{}, &composables.Session{Usuario: "cap1", Rol: "capturista"})

	req := httptest.NewRequest(http.MethodGet, "/api/backup/export", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBackup_Export(t *testing.T) {
	router := exportRouter(&stubExporter{recs: exportedRecords()}, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/backup/export", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Records []struct {
			Trimestre   *string `json:"trimestre"`
			EstatusCURP string  `json:"estatus_curp"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Records, 2)
	require.NotNil(t, resp.Records[0].Trimestre)
	assert.Equal(t, "2024-T1", *resp.Records[0].Trimestre)
}
