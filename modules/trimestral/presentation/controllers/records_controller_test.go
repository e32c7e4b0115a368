package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/infrastructure/persistence"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/presentation/controllers"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/services"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/middleware"
)

type stubStore struct {
	createFn      func(ctx context.Context, in record.RowInput, usuario string) (*record.Record, bool, error)
	listFn        func(ctx context.Context, params *record.FindParams) ([]*record.Record, int64, error)
	batchUpdateFn func(ctx context.Context, updates []services.FieldUpdate) (int64, error)
	bulkFn        func(ctx context.Context, rows []record.RowInput, usuario string) (*record.Report, error)
}

func (s *stubStore) Create(ctx context.Context, in record.RowInput, usuario string) (*record.Record, bool, error) {
	return s.createFn(ctx, in, usuario)
}

func (s *stubStore) List(ctx context.Context, params *record.FindParams) ([]*record.Record, int64, error) {
	return s.listFn(ctx, params)
}

func (s *stubStore) BatchUpdate(ctx context.Context, updates []services.FieldUpdate) (int64, error) {
	return s.batchUpdateFn(ctx, updates)
}

func (s *stubStore) BulkIngest(ctx context.Context, rows []record.RowInput, usuario string) (*record.Report, error) {
	return s.bulkFn(ctx, rows, usuario)
}

// fakeAuth stands in for the session middleware and plants a fixed session.
func fakeAuth(session *composables.Session) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithSession(r.Context(), session)))
		})
	}
}

func adminSession() *composables.Session {
	return &composables.Session{UserID: 1, Usuario: "admin1", Rol: "administrador"}
}

func newRouter(store *stubStore, session *composables.Session) *mux.Router {
	c := controllers.NewRecordsController(
		store, store, fakeAuth(session), middleware.RequireAdmin(), 25, 500,
	)
	r := mux.NewRouter()
	c.Register(r)
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestBulk_EnvelopedRows(t *testing.T) {
	var gotUsuario string
	var gotRows []record.RowInput
	store := &stubStore{
		bulkFn: func(_ context.Context, rows []record.RowInput, usuario string) (*record.Report, error) {
			gotRows = rows
			gotUsuario = usuario
			return &record.Report{Success: true, Received: len(rows), Processed: len(rows), Inserted: len(rows), Errors: []record.RowError{}}, nil
		},
	}
	router := newRouter(store, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/bulk", map[string]any{
		"rows": []record.RowInput{{Trimestre: "2024-T1", Nombre: "Ana"}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "admin1", gotUsuario)
	require.Len(t, gotRows, 1)
	assert.Equal(t, "Ana", gotRows[0].Nombre)

	var report record.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Inserted)
}

func TestBulk_BareArray(t *testing.T) {
	store := &stubStore{
		bulkFn: func(_ context.Context, rows []record.RowInput, _ string) (*record.Report, error) {
			return &record.Report{Success: true, Received: len(rows), Errors: []record.RowError{}}, nil
		},
	}
	router := newRouter(store, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/bulk",
		[]record.RowInput{{Trimestre: "2024-T1"}, {Trimestre: "2024-T1"}})
	require.Equal(t, http.StatusOK, rr.Code)

	var report record.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Received)
}

func TestBulk_RequiresAdmin(t *testing.T) {
	router := newRouter(&stubStore{}, &composables.Session{Usuario: "cap1", Rol: "capturista"})

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/bulk", map[string]any{
		"rows": []record.RowInput{{Trimestre: "2024-T1"}},
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBulk_EmptyPayload(t *testing.T) {
	router := newRouter(&stubStore{}, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/bulk", map[string]any{"rows": []record.RowInput{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulk_TooManyRows(t *testing.T) {
	store := &stubStore{
		bulkFn: func(context.Context, []record.RowInput, string) (*record.Report, error) {
			return nil, services.ErrTooManyRows
		},
	}
	router := newRouter(store, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/bulk", map[string]any{
		"rows": []record.RowInput{{Trimestre: "2024-T1"}},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestCreate_Record(t *testing.T) {
	store := &stubStore{
		createFn: func(_ context.Context, in record.RowInput, usuario string) (*record.Record, bool, error) {
			return record.FromInput(in, usuario), true, nil
		},
	}
	router := newRouter(store, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral", record.RowInput{
		Trimestre: "2024-T1",
		Nombre:    "Ana",
		CURP:      "GARC800101HDFRRL09",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Success     bool   `json:"success"`
		Inserted    bool   `json:"inserted"`
		EstatusCURP string `json:"estatus_curp"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Inserted)
	assert.Equal(t, record.EstatusCURPValida, resp.EstatusCURP)
}

func TestCreate_MissingTrimestre(t *testing.T) {
	router := newRouter(&stubStore{}, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral", record.RowInput{Nombre: "Ana"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestList_Pagination(t *testing.T) {
	var gotParams *record.FindParams
	store := &stubStore{
		listFn: func(_ context.Context, params *record.FindParams) ([]*record.Record, int64, error) {
			gotParams = params
			return []*record.Record{{ID: 1}}, 31, nil
		},
	}
	router := newRouter(store, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/trimestral?page=3&limit=10&dependencia=SEP", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, gotParams)
	assert.Equal(t, "SEP", gotParams.Dependencia)
	assert.Equal(t, 10, gotParams.Limit)
	assert.Equal(t, 20, gotParams.Offset)

	var resp struct {
		Success bool  `json:"success"`
		Total   int64 `json:"total"`
		Page    int   `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(31), resp.Total)
	assert.Equal(t, 3, resp.Page)
}

func TestList_ClampsLimit(t *testing.T) {
	var gotParams *record.FindParams
	store := &stubStore{
		listFn: func(_ context.Context, params *record.FindParams) ([]*record.Record, int64, error) {
			gotParams = params
			return nil, 0, nil
		},
	}
	router := newRouter(store, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/api/trimestral?limit=99999", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, gotParams)
	assert.Equal(t, 500, gotParams.Limit)
}

func TestBatchUpdate_OK(t *testing.T) {
	var gotUpdates []services.FieldUpdate
	store := &stubStore{
		batchUpdateFn: func(_ context.Context, updates []services.FieldUpdate) (int64, error) {
			gotUpdates = updates
			return int64(len(updates)), nil
		},
	}
	router := newRouter(store, adminSession())

	value := "Titulado"
	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/batch-update", map[string]any{
		"updates": []services.FieldUpdate{
			{ID: 1, Field: "estado_avance", Value: &value},
			{ID: 2, Field: "estado_avance", Value: &value},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, gotUpdates, 2)

	var resp struct {
		Updated int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Updated)
}

func TestBatchUpdate_FieldNotAllowed(t *testing.T) {
	store := &stubStore{
		batchUpdateFn: func(context.Context, []services.FieldUpdate) (int64, error) {
			return 0, persistence.ErrFieldNotAllowed
		},
	}
	router := newRouter(store, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/batch-update", map[string]any{
		"updates": []services.FieldUpdate{{ID: 1, Field: "curp"}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBatchUpdate_RequiresValidPayload(t *testing.T) {
	router := newRouter(&stubStore{}, adminSession())

	rr := doJSON(t, router, http.MethodPost, "/api/trimestral/batch-update", map[string]any{
		"updates": []map[string]any{{"field": "modalidad"}}, // sin id
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
