package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/pkg/composables"
)

var ErrFieldNotAllowed = errors.New("field not allowed for batch update")

// updatableFields is the whitelist for the batch-update endpoint. Identity
// columns (curp, trimestre, id_rusp) are deliberately absent.
var updatableFields = map[string]bool{
	"nivel_educativo":       true,
	"institucion_educativa": true,
	"modalidad":             true,
	"estado_avance":         true,
	"observaciones":         true,
}

const (
	insertColumns = `trimestre, id_rusp, primer_apellido, segundo_apellido, nombre, curp,
		correo_institucional, telefono_institucional, nivel_educativo,
		institucion_educativa, modalidad, estado_avance, observaciones,
		enlace_nombre, enlace_primer_apellido, enlace_segundo_apellido,
		enlace_correo, enlace_telefono, nivel_puesto, nivel_tabular, ramo_ur,
		dependencia, usuario_registro, estatus_curp`

	selectColumns = `id, trimestre, id_rusp, primer_apellido, segundo_apellido, nombre, curp,
		correo_institucional, telefono_institucional, nivel_educativo,
		institucion_educativa, modalidad, estado_avance, observaciones,
		enlace_nombre, enlace_primer_apellido, enlace_segundo_apellido,
		enlace_correo, enlace_telefono, nivel_puesto, nivel_tabular, ramo_ur,
		dependencia, usuario_registro, estatus_curp, created_at`

	// Duplicate (curp, trimestre) pairs are silently skipped; rows with a
	// NULL curp never conflict because the unique index is partial.
	conflictClause = `ON CONFLICT (curp, trimestre) WHERE curp IS NOT NULL DO NOTHING`

	insertColumnCount = 24
)

type PgRecordRepository struct{}

func NewRecordRepository() record.Repository {
	return &PgRecordRepository{}
}

func insertArgs(rec *record.Record) []interface{} {
	return []interface{}{
		rec.Trimestre, rec.IDRusp, rec.PrimerApellido, rec.SegundoApellido,
		rec.Nombre, rec.CURP, rec.CorreoInstitucional,
		rec.TelefonoInstitucional, rec.NivelEducativo,
		rec.InstitucionEducativa, rec.Modalidad, rec.EstadoAvance,
		rec.Observaciones, rec.EnlaceNombre, rec.EnlacePrimerApellido,
		rec.EnlaceSegundoApellido, rec.EnlaceCorreo, rec.EnlaceTelefono,
		rec.NivelPuesto, rec.NivelTabular, rec.RamoUR, rec.Dependencia,
		rec.UsuarioRegistro, rec.EstatusCURP,
	}
}

func buildInsertQuery(rows int) string {
	values := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		placeholders := make([]string, 0, insertColumnCount)
		for j := 0; j < insertColumnCount; j++ {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i*insertColumnCount+j+1))
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
	}
	return fmt.Sprintf(
		"INSERT INTO registros_trimestral (%s) VALUES %s %s",
		insertColumns, strings.Join(values, ", "), conflictClause,
	)
}

func (g *PgRecordRepository) InsertBatch(ctx context.Context, recs []*record.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	args := make([]interface{}, 0, len(recs)*insertColumnCount)
	for _, rec := range recs {
		args = append(args, insertArgs(rec)...)
	}

	tag, err := tx.Exec(ctx, buildInsertQuery(len(recs)), args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert record batch")
	}
	return tag.RowsAffected(), nil
}

func (g *PgRecordRepository) InsertOne(ctx context.Context, rec *record.Record) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, buildInsertQuery(1), insertArgs(rec)...)
	if err != nil {
		return false, errors.Wrap(err, "failed to insert record")
	}
	return tag.RowsAffected() > 0, nil
}

func (g *PgRecordRepository) Create(ctx context.Context, rec *record.Record) (bool, error) {
	return g.InsertOne(ctx, rec)
}

func listFilter(params *record.FindParams) (string, []interface{}) {
	if params == nil || strings.TrimSpace(params.Dependencia) == "" {
		return "", nil
	}
	return " WHERE dependencia ILIKE $1", []interface{}{"%" + strings.TrimSpace(params.Dependencia) + "%"}
}

func (g *PgRecordRepository) GetPaginated(ctx context.Context, params *record.FindParams) ([]*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := listFilter(params)
	query := fmt.Sprintf(
		"SELECT %s FROM registros_trimestral%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		selectColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records")
	}
	defer rows.Close()

	recs := make([]*record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (g *PgRecordRepository) Count(ctx context.Context, params *record.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := listFilter(params)
	var count int64
	row := tx.QueryRow(ctx, "SELECT COUNT(*) FROM registros_trimestral"+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}
	return count, nil
}

func (g *PgRecordRepository) GetAll(ctx context.Context) ([]*record.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, fmt.Sprintf("SELECT %s FROM registros_trimestral ORDER BY id", selectColumns))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query all records")
	}
	defer rows.Close()

	recs := make([]*record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (g *PgRecordRepository) UpdateField(ctx context.Context, id int64, field string, value *string) (int64, error) {
	if !updatableFields[field] {
		return 0, errors.Wrapf(ErrFieldNotAllowed, "%q", field)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("UPDATE registros_trimestral SET %s = $1 WHERE id = $2", field)
	tag, err := tx.Exec(ctx, query, value, id)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to update field %q", field)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(scan func(dest ...any) error) (*record.Record, error) {
	var rec record.Record
	if err := scan(
		&rec.ID, &rec.Trimestre, &rec.IDRusp, &rec.PrimerApellido,
		&rec.SegundoApellido, &rec.Nombre, &rec.CURP,
		&rec.CorreoInstitucional, &rec.TelefonoInstitucional,
		&rec.NivelEducativo, &rec.InstitucionEducativa, &rec.Modalidad,
		&rec.EstadoAvance, &rec.Observaciones, &rec.EnlaceNombre,
		&rec.EnlacePrimerApellido, &rec.EnlaceSegundoApellido,
		&rec.EnlaceCorreo, &rec.EnlaceTelefono, &rec.NivelPuesto,
		&rec.NivelTabular, &rec.RamoUR, &rec.Dependencia,
		&rec.UsuarioRegistro, &rec.EstatusCURP, &rec.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan record")
	}
	return &rec, nil
}
