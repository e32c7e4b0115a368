package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/infrastructure/persistence"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/services"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/httpapi"
)

// RecordStore is the slice of RecordService the controller needs.
type RecordStore interface {
	Create(ctx context.Context, in record.RowInput, usuario string) (*record.Record, bool, error)
	List(ctx context.Context, params *record.FindParams) ([]*record.Record, int64, error)
	BatchUpdate(ctx context.Context, updates []services.FieldUpdate) (int64, error)
}

type BulkIngester interface {
	BulkIngest(ctx context.Context, rows []record.RowInput, usuario string) (*record.Report, error)
}

type RecordsController struct {
	records     RecordStore
	ingester    BulkIngester
	auth        mux.MiddlewareFunc
	admin       mux.MiddlewareFunc
	validate    *validator.Validate
	pageSize    int
	maxPageSize int
}

func NewRecordsController(
	records RecordStore,
	ingester BulkIngester,
	auth, admin mux.MiddlewareFunc,
	pageSize, maxPageSize int,
) *RecordsController {
	return &RecordsController{
		records:     records,
		ingester:    ingester,
		auth:        auth,
		admin:       admin,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

func (c *RecordsController) Key() string {
	return "/api/trimestral"
}

func (c *RecordsController) Register(r *mux.Router) {
	router := r.PathPrefix("/api/trimestral").Subrouter()
	router.Use(c.auth)

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.Handle("/bulk", c.admin(http.HandlerFunc(c.Bulk))).Methods(http.MethodPost)
	router.Handle("/batch-update", c.admin(http.HandlerFunc(c.BatchUpdate))).Methods(http.MethodPost)
}

func (c *RecordsController) Bulk(w http.ResponseWriter, r *http.Request) {
	session, err := composables.UseSession(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_SESSION", "No autenticado (sin sesión)")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Cuerpo JSON inválido")
		return
	}

	var req bulkRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		// legacy clients post the rows as a bare array
		if err := json.Unmarshal(raw, &req.Rows); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Se esperaba {\"rows\": [...]} o un arreglo de filas")
			return
		}
	}
	if len(req.Rows) == 0 {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "EMPTY_PAYLOAD", "No se recibieron filas")
		return
	}

	report, err := c.ingester.BulkIngest(r.Context(), req.Rows, session.Usuario)
	if err != nil {
		if errors.Is(err, services.ErrTooManyRows) {
			_ = httpapi.WriteError(w, http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS", "El lote excede el máximo de filas permitido")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("bulk ingest failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al procesar el lote")
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, report)
}

func (c *RecordsController) Create(w http.ResponseWriter, r *http.Request) {
	session, err := composables.UseSession(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_SESSION", "No autenticado (sin sesión)")
		return
	}

	var in record.RowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Cuerpo JSON inválido")
		return
	}
	if err := c.validate.Var(strings.TrimSpace(in.Trimestre), "required"); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "El campo trimestre es obligatorio")
		return
	}
	if err := c.validate.Var(strings.TrimSpace(in.Nombre), "required"); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "El campo nombre es obligatorio")
		return
	}

	rec, inserted, err := c.records.Create(r.Context(), in, session.Usuario)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("create record failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al guardar el registro")
		return
	}

	status := http.StatusCreated
	if !inserted {
		status = http.StatusOK
	}
	_ = httpapi.WriteJSON(w, status, &createResponse{
		Success:     true,
		Inserted:    inserted,
		EstatusCURP: rec.EstatusCURP,
		Record:      toRecordJSON(rec),
	})
}

func (c *RecordsController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = c.pageSize
	}
	if limit > c.maxPageSize {
		limit = c.maxPageSize
	}

	params := &record.FindParams{
		Dependencia: q.Get("dependencia"),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	recs, total, err := c.records.List(r.Context(), params)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("list records failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al consultar registros")
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{
		Success: true,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Data:    toRecordList(recs),
	})
}

func (c *RecordsController) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req batchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "BAD_JSON", "Cuerpo JSON inválido")
		return
	}
	if err := c.validate.Struct(&req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "Cada actualización requiere id y field")
		return
	}

	updated, err := c.records.BatchUpdate(r.Context(), req.Updates)
	if err != nil {
		if errors.Is(err, persistence.ErrFieldNotAllowed) {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "FIELD_NOT_ALLOWED", "Campo no permitido para actualización masiva")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("batch update failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Error al actualizar registros")
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, &batchUpdateResponse{Success: true, Updated: updated})
}
