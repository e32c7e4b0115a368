package record

import (
	"regexp"
	"strings"
	"time"
)

// Estatus de la CURP tras la normalización.
const (
	EstatusCURPValida    = "VALIDA"
	EstatusCURPPendiente = "PENDIENTE"
)

var curpPattern = regexp.MustCompile(`^[A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]\d$`)

// ValidCURP reports whether s matches the 18-character CURP layout. The
// input is expected to be trimmed and uppercased already.
func ValidCURP(s string) bool {
	return curpPattern.MatchString(s)
}

// Clean trims s and maps the empty string to nil.
func Clean(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CleanUpper is Clean plus uppercasing, for identifier-like columns.
func CleanUpper(s string) *string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// CleanLower is Clean plus lowercasing, for email columns.
func CleanLower(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// Record is one row of registros_trimestral. Data columns are pointers so
// that absent values round-trip as SQL NULL.
type Record struct {
	ID int64

	Trimestre              *string
	IDRusp                 *string
	PrimerApellido         *string
	SegundoApellido        *string
	Nombre                 *string
	CURP                   *string
	CorreoInstitucional    *string
	TelefonoInstitucional  *string
	NivelEducativo         *string
	InstitucionEducativa   *string
	Modalidad              *string
	EstadoAvance           *string
	Observaciones          *string
	EnlaceNombre           *string
	EnlacePrimerApellido   *string
	EnlaceSegundoApellido  *string
	EnlaceCorreo           *string
	EnlaceTelefono         *string
	NivelPuesto            *string
	NivelTabular           *string
	RamoUR                 *string
	Dependencia            *string
	UsuarioRegistro        *string

	EstatusCURP string
	CreatedAt   time.Time
}

// RowInput is the wire shape of one incoming row, shared by the single
// create endpoint and the bulk payload. Column names follow the table.
type RowInput struct {
	Trimestre             string `json:"trimestre"`
	IDRusp                string `json:"id_rusp"`
	PrimerApellido        string `json:"primer_apellido"`
	SegundoApellido       string `json:"segundo_apellido"`
	Nombre                string `json:"nombre"`
	CURP                  string `json:"curp"`
	CorreoInstitucional   string `json:"correo_institucional"`
	TelefonoInstitucional string `json:"telefono_institucional"`
	NivelEducativo        string `json:"nivel_educativo"`
	InstitucionEducativa  string `json:"institucion_educativa"`
	Modalidad             string `json:"modalidad"`
	EstadoAvance          string `json:"estado_avance"`
	Observaciones         string `json:"observaciones"`
	EnlaceNombre          string `json:"enlace_nombre"`
	EnlacePrimerApellido  string `json:"enlace_primer_apellido"`
	EnlaceSegundoApellido string `json:"enlace_segundo_apellido"`
	EnlaceCorreo          string `json:"enlace_correo"`
	EnlaceTelefono        string `json:"enlace_telefono"`
	NivelPuesto           string `json:"nivel_puesto"`
	NivelTabular          string `json:"nivel_tabular"`
	RamoUR                string `json:"ramo_ur"`
	Dependencia           string `json:"dependencia"`
	UsuarioRegistro       string `json:"usuario_registro"`
}

// FromInput normalizes one incoming row into a Record. Identifier columns
// are uppercased, emails lowercased, everything else trimmed. A CURP that
// is empty or does not match the pattern is stored as NULL with estatus
// PENDIENTE; callers can detect that through a nil CURP field.
func FromInput(in RowInput, usuario string) *Record {
	rec := &Record{
		Trimestre:             CleanUpper(in.Trimestre),
		IDRusp:                CleanUpper(in.IDRusp),
		PrimerApellido:        Clean(in.PrimerApellido),
		SegundoApellido:       Clean(in.SegundoApellido),
		Nombre:                Clean(in.Nombre),
		CorreoInstitucional:   CleanLower(in.CorreoInstitucional),
		TelefonoInstitucional: Clean(in.TelefonoInstitucional),
		NivelEducativo:        Clean(in.NivelEducativo),
		InstitucionEducativa:  Clean(in.InstitucionEducativa),
		Modalidad:             Clean(in.Modalidad),
		EstadoAvance:          Clean(in.EstadoAvance),
		Observaciones:         Clean(in.Observaciones),
		EnlaceNombre:          Clean(in.EnlaceNombre),
		EnlacePrimerApellido:  Clean(in.EnlacePrimerApellido),
		EnlaceSegundoApellido: Clean(in.EnlaceSegundoApellido),
		EnlaceCorreo:          CleanLower(in.EnlaceCorreo),
		EnlaceTelefono:        Clean(in.EnlaceTelefono),
		NivelPuesto:           Clean(in.NivelPuesto),
		NivelTabular:          Clean(in.NivelTabular),
		RamoUR:                CleanUpper(in.RamoUR),
		Dependencia:           Clean(in.Dependencia),
		UsuarioRegistro:       Clean(in.UsuarioRegistro),
	}
	if rec.UsuarioRegistro == nil {
		rec.UsuarioRegistro = Clean(usuario)
	}

	curp := CleanUpper(in.CURP)
	if curp != nil && ValidCURP(*curp) {
		rec.CURP = curp
		rec.EstatusCURP = EstatusCURPValida
	} else {
		rec.CURP = nil
		rec.EstatusCURP = EstatusCURPPendiente
	}
	return rec
}

// IsEmpty reports whether every data column is NULL. UsuarioRegistro is not
// counted because it is injected from the session.
func (r *Record) IsEmpty() bool {
	for _, v := range []*string{
		r.Trimestre, r.IDRusp, r.PrimerApellido, r.SegundoApellido, r.Nombre,
		r.CURP, r.CorreoInstitucional, r.TelefonoInstitucional,
		r.NivelEducativo, r.InstitucionEducativa, r.Modalidad, r.EstadoAvance,
		r.Observaciones, r.EnlaceNombre, r.EnlacePrimerApellido,
		r.EnlaceSegundoApellido, r.EnlaceCorreo, r.EnlaceTelefono,
		r.NivelPuesto, r.NivelTabular, r.RamoUR, r.Dependencia,
	} {
		if v != nil {
			return false
		}
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Fields returns the data columns in table order, for export writers.
func (r *Record) Fields() []string {
	return []string{
		deref(r.Trimestre), deref(r.IDRusp), deref(r.PrimerApellido),
		deref(r.SegundoApellido), deref(r.Nombre), deref(r.CURP),
		r.EstatusCURP, deref(r.CorreoInstitucional),
		deref(r.TelefonoInstitucional), deref(r.NivelEducativo),
		deref(r.InstitucionEducativa), deref(r.Modalidad),
		deref(r.EstadoAvance), deref(r.Observaciones), deref(r.EnlaceNombre),
		deref(r.EnlacePrimerApellido), deref(r.EnlaceSegundoApellido),
		deref(r.EnlaceCorreo), deref(r.EnlaceTelefono), deref(r.NivelPuesto),
		deref(r.NivelTabular), deref(r.RamoUR), deref(r.Dependencia),
		deref(r.UsuarioRegistro),
	}
}

// ExportHeader matches the column order produced by Fields.
func ExportHeader() []string {
	return []string{
		"trimestre", "id_rusp", "primer_apellido", "segundo_apellido",
		"nombre", "curp", "estatus_curp", "correo_institucional",
		"telefono_institucional", "nivel_educativo", "institucion_educativa",
		"modalidad", "estado_avance", "observaciones", "enlace_nombre",
		"enlace_primer_apellido", "enlace_segundo_apellido", "enlace_correo",
		"enlace_telefono", "nivel_puesto", "nivel_tabular", "ramo_ur",
		"dependencia", "usuario_registro",
	}
}
