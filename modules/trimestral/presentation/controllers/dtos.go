package controllers

import (
	"time"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/services"
)

// bulkRequest accepts both the enveloped shape {"rows": [...]} and a bare
// JSON array, which is what older capture scripts still send.
type bulkRequest struct {
	Rows []record.RowInput `json:"rows"`
}

type batchUpdateRequest struct {
	Updates []services.FieldUpdate `json:"updates" validate:"required,min=1,dive"`
}

type recordJSON struct {
	ID                    int64     `json:"id"`
	Trimestre             *string   `json:"trimestre"`
	IDRusp                *string   `json:"id_rusp"`
	PrimerApellido        *string   `json:"primer_apellido"`
	SegundoApellido       *string   `json:"segundo_apellido"`
	Nombre                *string   `json:"nombre"`
	CURP                  *string   `json:"curp"`
	EstatusCURP           string    `json:"estatus_curp"`
	CorreoInstitucional   *string   `json:"correo_institucional"`
	TelefonoInstitucional *string   `json:"telefono_institucional"`
	NivelEducativo        *string   `json:"nivel_educativo"`
	InstitucionEducativa  *string   `json:"institucion_educativa"`
	Modalidad             *string   `json:"modalidad"`
	EstadoAvance          *string   `json:"estado_avance"`
	Observaciones         *string   `json:"observaciones"`
	EnlaceNombre          *string   `json:"enlace_nombre"`
	EnlacePrimerApellido  *string   `json:"enlace_primer_apellido"`
	EnlaceSegundoApellido *string   `json:"enlace_segundo_apellido"`
	EnlaceCorreo          *string   `json:"enlace_correo"`
	EnlaceTelefono        *string   `json:"enlace_telefono"`
	NivelPuesto           *string   `json:"nivel_puesto"`
	NivelTabular          *string   `json:"nivel_tabular"`
	RamoUR                *string   `json:"ramo_ur"`
	Dependencia           *string   `json:"dependencia"`
	UsuarioRegistro       *string   `json:"usuario_registro"`
	CreatedAt             time.Time `json:"created_at"`
}

func toRecordJSON(r *record.Record) *recordJSON {
	return &recordJSON{
		ID:                    r.ID,
		Trimestre:             r.Trimestre,
		IDRusp:                r.IDRusp,
		PrimerApellido:        r.PrimerApellido,
		SegundoApellido:       r.SegundoApellido,
		Nombre:                r.Nombre,
		CURP:                  r.CURP,
		EstatusCURP:           r.EstatusCURP,
		CorreoInstitucional:   r.CorreoInstitucional,
		TelefonoInstitucional: r.TelefonoInstitucional,
		NivelEducativo:        r.NivelEducativo,
		InstitucionEducativa:  r.InstitucionEducativa,
		Modalidad:             r.Modalidad,
		EstadoAvance:          r.EstadoAvance,
		Observaciones:         r.Observaciones,
		EnlaceNombre:          r.EnlaceNombre,
		EnlacePrimerApellido:  r.EnlacePrimerApellido,
		EnlaceSegundoApellido: r.EnlaceSegundoApellido,
		EnlaceCorreo:          r.EnlaceCorreo,
		EnlaceTelefono:        r.EnlaceTelefono,
		NivelPuesto:           r.NivelPuesto,
		NivelTabular:          r.NivelTabular,
		RamoUR:                r.RamoUR,
		Dependencia:           r.Dependencia,
		UsuarioRegistro:       r.UsuarioRegistro,
		CreatedAt:             r.CreatedAt,
	}
}

func toRecordList(recs []*record.Record) []*recordJSON {
	out := make([]*recordJSON, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordJSON(r))
	}
	return out
}

type createResponse struct {
	Success     bool        `json:"success"`
	Inserted    bool        `json:"inserted"`
	EstatusCURP string      `json:"estatus_curp"`
	Record      *recordJSON `json:"record"`
}

type listResponse struct {
	Success bool          `json:"success"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Data    []*recordJSON `json:"data"`
}

type batchUpdateResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}
