package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names, matching the bulk endpoint payload.
const (
	FieldTrimestre             = "trimestre"
	FieldIDRusp                = "id_rusp"
	FieldPrimerApellido        = "primer_apellido"
	FieldSegundoApellido       = "segundo_apellido"
	FieldNombre                = "nombre"
	FieldCURP                  = "curp"
	FieldCorreoInstitucional   = "correo_institucional"
	FieldTelefonoInstitucional = "telefono_institucional"
	FieldNivelEducativo        = "nivel_educativo"
	FieldInstitucionEducativa  = "institucion_educativa"
	FieldModalidad             = "modalidad"
	FieldEstadoAvance          = "estado_avance"
	FieldObservaciones         = "observaciones"
	FieldEnlaceNombre          = "enlace_nombre"
	FieldEnlacePrimerApellido  = "enlace_primer_apellido"
	FieldEnlaceSegundoApellido = "enlace_segundo_apellido"
	FieldEnlaceCorreo          = "enlace_correo"
	FieldEnlaceTelefono        = "enlace_telefono"
	FieldNivelPuesto           = "nivel_puesto"
	FieldNivelTabular          = "nivel_tabular"
	FieldRamoUR                = "ramo_ur"
	FieldDependencia           = "dependencia"
	FieldUsuarioRegistro       = "usuario_registro"
)

// CanonicalFields in payload order.
var CanonicalFields = []string{
	FieldTrimestre, FieldIDRusp, FieldPrimerApellido, FieldSegundoApellido,
	FieldNombre, FieldCURP, FieldCorreoInstitucional,
	FieldTelefonoInstitucional, FieldNivelEducativo,
	FieldInstitucionEducativa, FieldModalidad, FieldEstadoAvance,
	FieldObservaciones, FieldEnlaceNombre, FieldEnlacePrimerApellido,
	FieldEnlaceSegundoApellido, FieldEnlaceCorreo, FieldEnlaceTelefono,
	FieldNivelPuesto, FieldNivelTabular, FieldRamoUR, FieldDependencia,
	FieldUsuarioRegistro,
}

// aliases maps normalized spreadsheet headers to canonical columns. The
// capture templates changed wording over the years, so this list is long.
var aliases = map[string]string{
	"trimestre_reportado":       FieldTrimestre,
	"periodo":                   FieldTrimestre,
	"periodo_reportado":         FieldTrimestre,
	"rusp":                      FieldIDRusp,
	"id_rusp_servidor_publico":  FieldIDRusp,
	"clave_rusp":                FieldIDRusp,
	"apellido_paterno":          FieldPrimerApellido,
	"primer_apellido_sp":        FieldPrimerApellido,
	"apellido_materno":          FieldSegundoApellido,
	"segundo_apellido_sp":       FieldSegundoApellido,
	"nombre_s":                  FieldNombre,
	"nombres":                   FieldNombre,
	"nombre_sp":                 FieldNombre,
	"clave_unica_de_registro_de_poblacion": FieldCURP,
	"correo":                    FieldCorreoInstitucional,
	"correo_electronico":        FieldCorreoInstitucional,
	"correo_electronico_institucional": FieldCorreoInstitucional,
	"email":                     FieldCorreoInstitucional,
	"telefono":                  FieldTelefonoInstitucional,
	"telefono_institucional_ext": FieldTelefonoInstitucional,
	"nivel_de_estudios":         FieldNivelEducativo,
	"nivel_maximo_de_estudios":  FieldNivelEducativo,
	"escolaridad":               FieldNivelEducativo,
	"institucion":               FieldInstitucionEducativa,
	"institucion_academica":     FieldInstitucionEducativa,
	"modalidad_de_estudio":      FieldModalidad,
	"avance":                    FieldEstadoAvance,
	"estado_de_avance":          FieldEstadoAvance,
	"estatus_de_avance":         FieldEstadoAvance,
	"observacion":               FieldObservaciones,
	"comentarios":               FieldObservaciones,
	"nombre_enlace":             FieldEnlaceNombre,
	"enlace_apellido_paterno":   FieldEnlacePrimerApellido,
	"enlace_apellido_materno":   FieldEnlaceSegundoApellido,
	"correo_enlace":             FieldEnlaceCorreo,
	"telefono_enlace":           FieldEnlaceTelefono,
	"nivel_del_puesto":          FieldNivelPuesto,
	"nivel_salarial":            FieldNivelTabular,
	"nivel_tabular_del_puesto":  FieldNivelTabular,
	"ramo":                      FieldRamoUR,
	"ramo_y_ur":                 FieldRamoUR,
	"ur":                        FieldRamoUR,
	"unidad_responsable":        FieldRamoUR,
	"dependencia_o_entidad":     FieldDependencia,
	"institucion_dependencia":   FieldDependencia,
	"capturo":                   FieldUsuarioRegistro,
	"usuario":                   FieldUsuarioRegistro,
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeaderKey lowercases, strips diacritics and squeezes every run
// of non-alphanumeric characters into a single underscore, so that
// "Correo Electrónico (Institucional)" and "correo_electronico_institucional"
// meet in the middle.
func NormalizeHeaderKey(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

var canonicalSet = func() map[string]bool {
	set := make(map[string]bool, len(CanonicalFields))
	for _, f := range CanonicalFields {
		set[f] = true
	}
	return set
}()

// CanonicalField resolves a raw header to its canonical column, via exact
// match first and the alias table second.
func CanonicalField(header string) (string, bool) {
	key := NormalizeHeaderKey(header)
	if canonicalSet[key] {
		return key, true
	}
	if field, ok := aliases[key]; ok {
		return field, true
	}
	return "", false
}
